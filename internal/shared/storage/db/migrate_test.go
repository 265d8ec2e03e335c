package db

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMigrationsEmbedded(t *testing.T) {
	names, err := MigrationNames()
	if err != nil {
		t.Fatalf("MigrationNames: %v", err)
	}
	want := []string{"00001_users.sql", "00002_resumes.sql", "00003_user_subscriptions.sql"}
	if len(names) != len(want) {
		t.Fatalf("expected %d migrations, got %v", len(want), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("migration %d = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestRunMigrationsNilDatabase(t *testing.T) {
	if err := RunMigrations(context.Background(), nil); err != nil {
		t.Fatalf("expected nil for nil database, got %v", err)
	}
}

func TestMigrateRejectsUnknownCommand(t *testing.T) {
	database, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer database.Close()

	if err := Migrate(context.Background(), database, "sideways"); err == nil {
		t.Fatalf("expected error for unknown command")
	}
}
