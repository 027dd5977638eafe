//go:build sqlite_fts5

package store

// SearchMessages performs a full-text search on message bodies using the
// FTS5 index. An optional contact uid restricts results to one
// conversation side.
func (db *DB) SearchMessages(query string, contactUID string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}

	q := `
		SELECT m.rowid, m.id, m.type, m.target, m.sender_uid, m.recipient_uid,
		       m.body, m.sent_at, m.created_at,
		       snippet(messages_fts, 0, '<<', '>>', '...', 32)
		FROM messages_fts f
		JOIN messages m ON m.rowid = f.rowid
		WHERE messages_fts MATCH ?`

	args := []any{query}
	if contactUID != "" {
		q += " AND (m.sender_uid = ? OR m.recipient_uid = ?)"
		args = append(args, contactUID, contactUID)
	}
	q += " ORDER BY rank LIMIT ?"
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
			&r.Message.SentAt, &r.Message.CreatedAt, &r.Snippet,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
