package store

import (
	"path/filepath"
	"testing"

	"github.com/nrocha/peerchat/internal/store/migrations"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateAppliesOnFreshDB(t *testing.T) {
	db := testDB(t)

	// testDB already ran Migrate, so run it again to check idempotency.
	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != migrations.Latest {
		t.Errorf("version = %d, want %d", result.Version, migrations.Latest)
	}
}

func TestMigrateSchemaHasRequiredColumns(t *testing.T) {
	db := testDB(t)

	// These columns must exist for the reconciliation pipeline to work.
	requiredOps := []struct {
		desc  string
		query string
		args  []any
	}{
		{"insert contact", "INSERT INTO contacts (uid, name, num_unread, online) VALUES (?, ?, ?, ?)", []any{"u1", "Bob", 0, 1}},
		{"insert message", "INSERT INTO messages (id, type, target, sender_uid, recipient_uid, body, sent_at) VALUES (?, ?, ?, ?, ?, ?, ?)", []any{"m1", "chat", "whisper", "u1", "me", "hello", 1000}},
		{"insert confirmation", "INSERT INTO confirmations (message_id, confirms_id) VALUES (?, ?)", []any{"m1", "m0"}},
		{"queue outbox", "INSERT INTO outbox (client_msg_id, recipient_uid, payload, status) VALUES (?, ?, ?, ?)", []any{"cid", "u1", "{}", "queued"}},
	}

	for _, op := range requiredOps {
		t.Run(op.desc, func(t *testing.T) {
			if _, err := db.Exec(op.query, op.args...); err != nil {
				t.Fatalf("%s failed: %v", op.desc, err)
			}
		})
	}
}

func TestInsertAndGetMessage(t *testing.T) {
	db := testDB(t)

	msg := &Message{ID: "m1", Type: "chat", Target: "whisper", SenderUID: "u1", RecipientUID: "me", Body: "hello", SentAt: 1000}
	if err := db.InsertMessage(msg); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetMessage("m1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Body != "hello" {
		t.Fatalf("got %v, want body=hello", got)
	}
	if got.Seq == 0 {
		t.Error("Seq should be populated from rowid")
	}

	// Duplicate insert must fail: the handler owns dedup.
	if err := db.InsertMessage(msg); err == nil {
		t.Error("duplicate InsertMessage should fail")
	}

	// Absent id returns nil, nil.
	got, err = db.GetMessage("missing")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("expected nil for missing message")
	}
}

func TestConversationMessagesOrderAndFilter(t *testing.T) {
	db := testDB(t)

	msgs := []*Message{
		{ID: "m1", Type: "chat", Target: "whisper", SenderUID: "u1", RecipientUID: "me", SentAt: 3000},
		{ID: "m2", Type: "chat", Target: "whisper", SenderUID: "me", RecipientUID: "u1", SentAt: 1000},
		{ID: "m3", Type: "chat", Target: "channel", SenderUID: "u1", RecipientUID: "general", SentAt: 2000},
		{ID: "m4", Type: "chat", Target: "whisper", SenderUID: "u2", RecipientUID: "me", SentAt: 500},
	}
	for _, m := range msgs {
		if err := db.InsertMessage(m); err != nil {
			t.Fatal(err)
		}
	}

	conv, err := db.ConversationMessages("me", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(conv) != 2 {
		t.Fatalf("got %d messages, want 2 (channel and other-party excluded)", len(conv))
	}
	// Insertion order, not sent_at order.
	if conv[0].ID != "m1" || conv[1].ID != "m2" {
		t.Errorf("order = [%s %s], want [m1 m2] (insertion order)", conv[0].ID, conv[1].ID)
	}
}

func TestDeleteMessageCascadesConfirmations(t *testing.T) {
	db := testDB(t)

	if err := db.InsertMessage(&Message{ID: "m1", Type: "delivery-confirmation", Target: "whisper", SenderUID: "u1"}); err != nil {
		t.Fatal(err)
	}
	if err := db.AddConfirmation("m1", "m0"); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteMessage("m1"); err != nil {
		t.Fatal(err)
	}

	ids, err := db.ConfirmationsFor("m1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Errorf("got %d confirmations after delete, want 0 (cascade)", len(ids))
	}
}

func TestConfirmationsOrdered(t *testing.T) {
	db := testDB(t)

	if err := db.InsertMessage(&Message{ID: "c1", Type: "delivery-confirmation", Target: "whisper"}); err != nil {
		t.Fatal(err)
	}
	for _, target := range []string{"m1", "m2", "m3"} {
		if err := db.AddConfirmation("c1", target); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := db.ConfirmationsFor("c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 || ids[0] != "m1" || ids[2] != "m3" {
		t.Errorf("confirmations = %v, want [m1 m2 m3]", ids)
	}
}

func TestInsertConfirmedMessage(t *testing.T) {
	db := testDB(t)

	msg := &Message{ID: "c1", Type: "delivery-confirmation", Target: "whisper", SenderUID: "u1", RecipientUID: "me"}
	if err := db.InsertConfirmedMessage(msg, "m1"); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetMessage("c1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("confirming message not persisted")
	}
	ids, err := db.ConfirmationsFor("c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "m1" {
		t.Errorf("confirmations = %v, want [m1]", ids)
	}
}

func TestInsertConfirmedMessageIsAtomic(t *testing.T) {
	db := testDB(t)

	if err := db.InsertMessage(&Message{ID: "c1", Type: "chat", Target: "whisper", SenderUID: "u1"}); err != nil {
		t.Fatal(err)
	}

	// The message insert collides with the existing id, so the whole
	// transaction rolls back and no confirmation row appears.
	err := db.InsertConfirmedMessage(&Message{ID: "c1", Type: "delivery-confirmation", Target: "whisper"}, "m1")
	if err == nil {
		t.Fatal("duplicate id should fail the transaction")
	}
	ids, err := db.ConfirmationsFor("c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Errorf("got %d confirmations after failed transaction, want 0", len(ids))
	}
}

func TestFindOrCreateContact(t *testing.T) {
	db := testDB(t)

	c, err := db.FindOrCreateContact("u1", "Bob")
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "Bob" || c.NumUnread != 0 {
		t.Errorf("got %+v, want Bob with 0 unread", c)
	}

	// Second call with a new name updates the display name.
	c, err = db.FindOrCreateContact("u1", "Robert")
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "Robert" {
		t.Errorf("name = %q, want Robert", c.Name)
	}

	// Empty name keeps the existing one.
	c, err = db.FindOrCreateContact("u1", "")
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "Robert" {
		t.Errorf("name = %q, want Robert (empty name ignored)", c.Name)
	}

	count, err := db.ContactCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("contact count = %d, want 1", count)
	}
}

func TestUnreadAndPresence(t *testing.T) {
	db := testDB(t)

	if _, err := db.FindOrCreateContact("u1", "Bob"); err != nil {
		t.Fatal(err)
	}

	if err := db.IncrementUnread("u1"); err != nil {
		t.Fatal(err)
	}
	if err := db.IncrementUnread("u1"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetOnline("u1", true); err != nil {
		t.Fatal(err)
	}

	c, err := db.GetContact("u1")
	if err != nil {
		t.Fatal(err)
	}
	if c.NumUnread != 2 {
		t.Errorf("num_unread = %d, want 2", c.NumUnread)
	}
	if !c.Online {
		t.Error("contact should be online")
	}

	if err := db.SetOnline("u1", false); err != nil {
		t.Fatal(err)
	}
	c, _ = db.GetContact("u1")
	if c.Online {
		t.Error("contact should be offline")
	}
}

func TestSearchMessages(t *testing.T) {
	db := testDB(t)

	if err := db.InsertMessage(&Message{ID: "m1", Type: "chat", Target: "whisper", SenderUID: "u1", RecipientUID: "me", Body: "hello world"}); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertMessage(&Message{ID: "m2", Type: "chat", Target: "whisper", SenderUID: "u2", RecipientUID: "me", Body: "goodbye world"}); err != nil {
		t.Fatal(err)
	}

	results, err := db.SearchMessages("hello", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Message.ID != "m1" {
		t.Errorf("id = %q, want m1", results[0].Message.ID)
	}

	// Scoped to a contact.
	results, err = db.SearchMessages("world", "u2", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Message.ID != "m2" {
		t.Errorf("scoped search = %v, want only m2", results)
	}
}

func TestOutbox(t *testing.T) {
	db := testDB(t)

	if err := db.QueueOutbox("client1", "u1", `{"type":"chat"}`); err != nil {
		t.Fatal(err)
	}

	pending, err := db.PendingOutbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("got %d pending, want 1", len(pending))
	}
	if pending[0].ClientMsgID != "client1" || pending[0].RecipientUID != "u1" {
		t.Errorf("entry = %+v", pending[0])
	}

	if err := db.MarkOutboxSending("client1"); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkOutboxSent("client1"); err != nil {
		t.Fatal(err)
	}

	pending, err = db.PendingOutbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("got %d pending after sent, want 0", len(pending))
	}
}
