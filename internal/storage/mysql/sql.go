package mysql

const upsertDocumentSQL = `
INSERT INTO plan_documents
  (plan_key, doc_name, body, etag)
VALUES
  (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  body       = VALUES(body),
  etag       = VALUES(etag),
  updated_at = CURRENT_TIMESTAMP
`

const getDocumentSQL = `
SELECT body, etag
FROM plan_documents
WHERE plan_key = ? AND doc_name = ?
`

const insertPlanSQL = `
INSERT INTO plans
  (plan_key, author, title, region, start_date, end_date, days)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  title      = VALUES(title),
  region     = VALUES(region),
  start_date = VALUES(start_date),
  end_date   = VALUES(end_date),
  days       = VALUES(days)
`

// Newest first; the author index covers the ORDER BY.
const listPlansSQL = `
SELECT plan_key, author, title, region, start_date, end_date, days, created_at
FROM plans
WHERE author = ?
ORDER BY created_at DESC, plan_key
LIMIT ?
`
