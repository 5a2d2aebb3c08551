package service

import (
	"context"
	"testing"
)

func TestClientCreateGetByCode(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewClientService(db)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateClientInput{
		Name:    "Acme Corp",
		Code:    "acme",
		APIKeys: map[string]string{"search": "sk-123"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.PrimaryColor == "" {
		t.Fatal("primary color default missing")
	}
	if created.APIKeys["search"] != "sk-123" {
		t.Fatalf("api keys = %v", created.APIKeys)
	}

	byCode, err := svc.GetByCode(ctx, "acme")
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if byCode == nil || byCode.ClientID != created.ClientID {
		t.Fatalf("by code = %+v", byCode)
	}

	if _, err := svc.Create(ctx, CreateClientInput{Name: "Other", Code: "acme"}); err == nil {
		t.Fatal("expected duplicate code rejection")
	}
}

func TestClientUpdatePreservesUnsetFields(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewClientService(db)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateClientInput{Name: "Acme", Code: "acme", PrimaryColor: "#111"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Acme Renamed"
	updated, err := svc.Update(ctx, created.ClientID, UpdateClientInput{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Acme Renamed" {
		t.Fatalf("name = %q", updated.Name)
	}
	if updated.PrimaryColor != "#111" {
		t.Fatalf("primary color clobbered: %q", updated.PrimaryColor)
	}
	if updated.UpdatedAt == nil {
		t.Fatal("updated_at not set")
	}

	if missing, err := svc.Update(ctx, "no-such-id", UpdateClientInput{}); err != nil || missing != nil {
		t.Fatalf("update missing = %+v, %v", missing, err)
	}
}

func TestClientDelete(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewClientService(db)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateClientInput{Name: "Acme", Code: "acme"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if deleted, err := svc.Delete(ctx, created.ClientID); err != nil || !deleted {
		t.Fatalf("delete = %v, %v", deleted, err)
	}
	if deleted, err := svc.Delete(ctx, created.ClientID); err != nil || deleted {
		t.Fatalf("second delete = %v, %v", deleted, err)
	}
}
