package domain

import "math"

// Category is a provider place type used for nearby searches.
type Category string

const (
	CategoryAny        Category = ""
	CategoryAttraction Category = "tourist_attraction"
	CategoryRestaurant Category = "restaurant"
	CategoryCafe       Category = "cafe"
	CategoryLodging    Category = "lodging"
)

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is a verified real-world location. ExternalID is the identity key;
// Score is only used for ranking.
type Place struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Address     string   `json:"address"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"reviewCount"`
	ExternalID  string   `json:"placeId"`
	Score       float64  `json:"score"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Types       []string `json:"types"`
	ImageURL    string   `json:"imageUrl,omitempty"`
}

// Score computes rating * ln(reviewCount + 1).
func Score(rating float64, reviewCount int) float64 {
	if reviewCount < 0 {
		reviewCount = 0
	}
	return rating * math.Log(float64(reviewCount)+1)
}

// RawPlace is a single provider search hit before filtering and ranking.
type RawPlace struct {
	ExternalID  string
	Name        string
	Address     string
	Rating      float64
	ReviewCount int
	Lat, Lng    float64
	Types       []string
	ImageURL    string
}

// ToPlace maps a provider hit into a Place with its score filled in.
func (r RawPlace) ToPlace() Place {
	types := r.Types
	if types == nil {
		types = []string{}
	}
	return Place{
		Name:        r.Name,
		Address:     r.Address,
		Rating:      r.Rating,
		ReviewCount: r.ReviewCount,
		ExternalID:  r.ExternalID,
		Score:       Score(r.Rating, r.ReviewCount),
		Lat:         r.Lat,
		Lng:         r.Lng,
		Types:       types,
		ImageURL:    r.ImageURL,
	}
}

type NearbyQuery struct {
	Center   GeoPoint
	Category Category
	Keyword  string
	Radius   int // meters
}

// RawPage is one page of nearby results. NextPageToken is empty on the last page.
type RawPage struct {
	Results       []RawPlace
	NextPageToken string
}

// AttractionBundle is an attraction with the amenities found around it.
type AttractionBundle struct {
	Attraction  Place   `json:"attraction"`
	Restaurants []Place `json:"restaurants"`
	Cafes       []Place `json:"cafes"`
	Lodgings    []Place `json:"hotels"`
}

// PlaceLists is the flattened snapshot persisted as the "places" document.
type PlaceLists struct {
	Attractions []Place `json:"attractionList"`
	Restaurants []Place `json:"restaurantList"`
	Cafes       []Place `json:"cafeList"`
	Lodgings    []Place `json:"hotelList"`
}
