//go:build sqlite_fts5

package store

import "testing"

func TestFTSIndexTracksMessages(t *testing.T) {
	db := testDB(t)

	if err := db.InsertMessage(&Message{ID: "m1", Type: "chat", Target: "whisper", SenderUID: "u1", RecipientUID: "me", Body: "hello world"}); err != nil {
		t.Fatal(err)
	}

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM messages_fts WHERE messages_fts MATCH 'hello'").Scan(&count)
	if err != nil {
		t.Fatalf("FTS5 query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("FTS5 count = %d, want 1", count)
	}

	// The delete trigger keeps the index in sync.
	if err := db.DeleteMessage("m1"); err != nil {
		t.Fatal(err)
	}
	err = db.QueryRow("SELECT COUNT(*) FROM messages_fts WHERE messages_fts MATCH 'hello'").Scan(&count)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("FTS5 count after delete = %d, want 0", count)
	}
}

func TestSearchSnippetMarksMatch(t *testing.T) {
	db := testDB(t)

	if err := db.InsertMessage(&Message{ID: "m1", Type: "chat", Target: "whisper", SenderUID: "u1", RecipientUID: "me", Body: "the quick brown fox"}); err != nil {
		t.Fatal(err)
	}

	results, err := db.SearchMessages("quick", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Snippet == "" {
		t.Error("snippet should not be empty")
	}
}
