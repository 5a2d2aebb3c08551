package service

import (
	"context"
	"testing"
)

func TestChatSessionTranscriptRoundTrip(t *testing.T) {
	db := setupServiceDB(t)
	seedUser(t, db, "u1")
	svc := NewChatStoreService(db)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "u1", "")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.Title != "New Chat" {
		t.Fatalf("default title = %q", session.Title)
	}

	if _, err := svc.AddMessage(ctx, session.SessionID, "u1", "user", "hello"); err != nil {
		t.Fatalf("add message: %v", err)
	}
	if _, err := svc.AddMessage(ctx, session.SessionID, "u1", "assistant", "hi!"); err != nil {
		t.Fatalf("add message: %v", err)
	}

	loaded, err := svc.GetSession(ctx, session.SessionID, "u1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if len(loaded.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(loaded.Messages))
	}
	if loaded.Messages[0].Role != "user" || loaded.Messages[1].Role != "assistant" {
		t.Fatalf("message order = %+v", loaded.Messages)
	}
}

func TestAddMessageRefusesForeignSession(t *testing.T) {
	db := setupServiceDB(t)
	seedUser(t, db, "u1")
	seedUser(t, db, "u2")
	svc := NewChatStoreService(db)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "u1", "mine")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	msg, err := svc.AddMessage(ctx, session.SessionID, "u2", "user", "intrusion")
	if err != nil {
		t.Fatalf("add message: %v", err)
	}
	if msg != nil {
		t.Fatal("message added to a session the user does not own")
	}
}

func TestDeleteSessionCascadesMessages(t *testing.T) {
	db := setupServiceDB(t)
	seedUser(t, db, "u1")
	svc := NewChatStoreService(db)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "u1", "doomed")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := svc.AddMessage(ctx, session.SessionID, "u1", "user", "bye"); err != nil {
		t.Fatalf("add message: %v", err)
	}

	deleted, err := svc.DeleteSession(ctx, session.SessionID, "u1")
	if err != nil || !deleted {
		t.Fatalf("delete = %v, %v", deleted, err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(1) FROM chat_messages`).Scan(&count); err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected cascade delete, %d messages remain", count)
	}
}
