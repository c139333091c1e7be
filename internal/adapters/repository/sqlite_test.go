package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteStore(t *testing.T) {
	runBackendContract(t, "sqlite", func(t *testing.T) Backend {
		s, err := NewSQLiteStore(context.Background(), openTestDB(t))
		if err != nil {
			t.Fatalf("new store: %v", err)
		}
		return s
	})
}

func TestSQLiteSchema(t *testing.T) {
	Convey("Given a fresh database", t, func() {
		db := openTestDB(t)
		_, err := NewSQLiteStore(context.Background(), db)
		So(err, ShouldBeNil)

		Convey("Then both tables exist and the schema is idempotent", func() {
			for _, table := range []string{"characters", "game_sessions"} {
				var name string
				err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
				So(err, ShouldBeNil)
			}
			_, err := NewSQLiteStore(context.Background(), db)
			So(err, ShouldBeNil)
		})
	})
}

func TestSQLiteClosed(t *testing.T) {
	Convey("Given a store whose database is closed", t, func() {
		s, err := NewSQLiteStore(context.Background(), openTestDB(t))
		So(err, ShouldBeNil)
		So(s.Close(), ShouldBeNil)

		Convey("Then operations fail as backend errors", func() {
			_, err := s.List(context.Background())
			So(errors.Is(err, ErrBackend), ShouldBeTrue)
		})
	})
}
