package mysql

const insertToolCallSQL = `
INSERT INTO tool_calls
  (id, server, tool, arguments, is_error, error_text, duration_ms, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Newest first; an empty server matches every server. Uses (server, created_at).
const listRecentCallsSQL = `
SELECT id, server, tool, arguments, is_error, error_text, duration_ms, created_at
FROM tool_calls
WHERE (? = '' OR server = ?)
ORDER BY created_at DESC, id DESC
LIMIT ?
`
