//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"tripplanner/internal/domain"
	mysqlrepo "tripplanner/internal/storage/mysql"
)

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=$PWD/migrations)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=tripplanner",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/tripplanner?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func TestRepo_MySQL_DocumentsAndIndex(t *testing.T) {
	repo := mysqlrepo.New(startMySQL(t))
	ctx := context.Background()
	key := "7f0c6f7e-0b39-4d5e-9f51-2a3c3f1d9e01"

	lists := domain.PlaceLists{
		Attractions: []domain.Place{{Name: "경포대", ExternalID: "p1", Rating: 4.5, Types: []string{}}},
		Restaurants: []domain.Place{},
		Cafes:       []domain.Place{},
		Lodgings:    []domain.Place{},
	}
	tag1, err := repo.Save(ctx, key, "places", lists)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	body, tag, err := repo.Load(ctx, key, "places")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tag != tag1 {
		t.Fatalf("etag = %s, want %s", tag, tag1)
	}
	var back domain.PlaceLists
	if err := json.Unmarshal(body, &back); err != nil {
		t.Fatalf("stored body is not JSON: %v", err)
	}
	if len(back.Attractions) != 1 || back.Attractions[0].Name != "경포대" {
		t.Fatalf("unexpected body: %s", body)
	}

	// overwrite changes the etag
	lists.Attractions[0].Rating = 4.6
	tag2, err := repo.Save(ctx, key, "places", lists)
	if err != nil || tag2 == tag1 {
		t.Fatalf("second Save: tag %s err %v", tag2, err)
	}

	if _, _, err := repo.Load(ctx, key, "schedules"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing document: err = %v, want ErrNotFound", err)
	}

	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	if err := repo.RecordPlan(ctx, domain.PlanSummary{
		PlanKey: key, Author: "kim@example.com", Title: "Spring trip", Region: "강릉",
		StartDate: start, EndDate: start.AddDate(0, 0, 1), Days: 2,
	}); err != nil {
		t.Fatalf("RecordPlan: %v", err)
	}
	plans, err := repo.ListPlans(ctx, "kim@example.com", 10)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(plans) != 1 || plans[0].PlanKey != key || plans[0].Days != 2 || !plans[0].StartDate.Equal(start) {
		t.Fatalf("unexpected plans: %+v", plans)
	}
	if other, _ := repo.ListPlans(ctx, "lee@example.com", 10); len(other) != 0 {
		t.Fatalf("plans leaked across authors: %+v", other)
	}
}
