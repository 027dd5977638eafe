//go:build !sqlite_fts5

package store

// SearchMessages performs a substring search on message bodies. Builds
// tagged sqlite_fts5 replace this with the FTS5 index and ranked
// snippets; here the snippet is the full body. An optional contact uid
// restricts results to one conversation side.
func (db *DB) SearchMessages(query string, contactUID string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}

	q := `
		SELECT rowid, id, type, target, sender_uid, recipient_uid, body, sent_at, created_at
		FROM messages
		WHERE body LIKE ?`

	args := []any{"%" + query + "%"}
	if contactUID != "" {
		q += " AND (sender_uid = ? OR recipient_uid = ?)"
		args = append(args, contactUID, contactUID)
	}
	q += " ORDER BY rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(
			&r.Message.Seq, &r.Message.ID, &r.Message.Type, &r.Message.Target,
			&r.Message.SenderUID, &r.Message.RecipientUID, &r.Message.Body,
			&r.Message.SentAt, &r.Message.CreatedAt,
		); err != nil {
			return nil, err
		}
		r.Snippet = r.Message.Body
		results = append(results, r)
	}
	return results, rows.Err()
}
