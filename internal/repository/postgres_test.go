package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
	"github.com/Payphone-Digital/fleet-registry/internal/filter"
	"github.com/Payphone-Digital/fleet-registry/internal/model"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("gorm.Open() error = %v", err)
	}
	return db, mock
}

func TestApplyConditionSQL(t *testing.T) {
	db, _ := newMockDB(t)

	tests := []struct {
		name     string
		resource string
		table    interface{}
		params   map[string]string
		wantSQL  string
		wantVars []interface{}
	}{
		{
			name:     "substring uses escaped ILIKE",
			resource: filter.ResourceVehicle,
			table:    &model.Vehicle{},
			params:   map[string]string{"Brand": "50%_off"},
			wantSQL:  `SELECT * FROM "vehicles" WHERE brand ILIKE $1 ESCAPE '\'`,
			wantVars: []interface{}{`%50\%\_off%`},
		},
		{
			name:     "enum and bool are equality",
			resource: filter.ResourceVehicle,
			table:    &model.Vehicle{},
			params:   map[string]string{"PowerType": "fuel", "AutonomousVehicle": "1"},
			wantSQL:  `SELECT * FROM "vehicles" WHERE autonomous_vehicle = $1 AND power_type = $2`,
			wantVars: []interface{}{true, "fuel"},
		},
		{
			name:     "range bounds are inclusive",
			resource: filter.ResourceTrip,
			table:    &model.Trip{},
			params:   map[string]string{"minstart_time": "0", "maxstart_time": "60"},
			wantSQL:  `SELECT * FROM "trips" WHERE start_time >= $1 AND start_time <= $2`,
			wantVars: []interface{}{time.Unix(0, 0).UTC(), time.Unix(60, 0).UTC()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond := mustCompile(t, tt.resource, tt.params)
			var dest []map[string]interface{}
			stmt := ApplyCondition(db.Session(&gorm.Session{DryRun: true}).Model(tt.table), cond).Find(&dest).Statement

			if got := stmt.SQL.String(); got != tt.wantSQL {
				t.Errorf("SQL = %s\nwant  %s", got, tt.wantSQL)
			}
			if len(stmt.Vars) != len(tt.wantVars) {
				t.Fatalf("Vars = %v, want %v", stmt.Vars, tt.wantVars)
			}
			for i, v := range stmt.Vars {
				if want, ok := tt.wantVars[i].(time.Time); ok {
					if got, _ := v.(time.Time); !got.Equal(want) {
						t.Errorf("Vars[%d] = %v, want %v", i, v, want)
					}
					continue
				}
				if v != tt.wantVars[i] {
					t.Errorf("Vars[%d] = %v, want %v", i, v, tt.wantVars[i])
				}
			}
		})
	}
}

func TestEscapeLike(t *testing.T) {
	tests := map[string]string{
		"plain": "plain",
		"a%b":   `a\%b`,
		"a_b":   `a\_b`,
		`a\b`:   `a\\b`,
		`%_\`:   `\%\_\\`,
		"":      "",
	}
	for in, want := range tests {
		if got := EscapeLike(in); got != want {
			t.Errorf("EscapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPostgresStoreFind(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewPostgresStore(db, func() *model.Vehicle { return &model.Vehicle{} })

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "vehicles" WHERE brand ILIKE $1 ESCAPE '\'`)).
		WithArgs("%tesla%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "vehicles" WHERE brand ILIKE $1 ESCAPE '\' ORDER BY created_at ASC, id ASC LIMIT`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "car_id", "license_plate", "brand"}).
			AddRow("6f1c1f7e-8a39-4a4a-9a57-3c1b5b1d2f10", "10000011", "P11", "Tesla").
			AddRow("6f1c1f7e-8a39-4a4a-9a57-3c1b5b1d2f11", "10000012", "P12", "Tesla"))

	cond := mustCompile(t, filter.ResourceVehicle, map[string]string{"Brand": "tesla"})
	items, total, err := store.Find(context.Background(), cond, 10, 10)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if total != 12 || len(items) != 2 {
		t.Errorf("total=%d len=%d, want 12 and 2", total, len(items))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreFindSkipsPageQueryPastTotal(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewPostgresStore(db, func() *model.Vehicle { return &model.Vehicle{} })

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "vehicles"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	items, total, err := store.Find(context.Background(), filter.Empty(filter.ResourceVehicle), 10, 10)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if total != 3 || len(items) != 0 {
		t.Errorf("total=%d len=%d, want 3 and 0", total, len(items))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreRejectsMalformedIDs(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewPostgresStore(db, func() *model.Vehicle { return &model.Vehicle{} })

	if _, err := store.Get(context.Background(), "123"); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Errorf("Get: expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(context.Background(), "123"); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expected no queries: %v", err)
	}
}

func TestPostgresStoreDeleteMissing(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewPostgresStore(db, func() *model.Vehicle { return &model.Vehicle{} })

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "vehicles" WHERE id = $1`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := store.Delete(context.Background(), NewID())
	if !errors.Is(err, domainerrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresStoreUpdateFieldsSetsOnlyNamedColumns(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewPostgresStore(db, func() *model.User { return &model.User{} })
	id := NewID()
	seen := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET "last_seen"=$1 WHERE id = $2`)).
		WithArgs(sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.UpdateFields(context.Background(), id, map[string]any{"last_seen": seen}); err != nil {
		t.Fatalf("UpdateFields() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTranslatePostgresError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want *domainerrors.DomainError
	}{
		{"record not found", gorm.ErrRecordNotFound, domainerrors.ErrNotFound},
		{"duplicate key", gorm.ErrDuplicatedKey, domainerrors.ErrStoreConflict},
		{"bad conn", driver.ErrBadConn, domainerrors.ErrStoreUnavailable},
		{"deadline", context.DeadlineExceeded, domainerrors.ErrStoreUnavailable},
		{"connect error", &pgconn.ConnectError{}, domainerrors.ErrStoreUnavailable},
		{"syntax error", &pgconn.PgError{Code: "42601"}, domainerrors.ErrQueryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := translatePostgresError(tt.err); !errors.Is(got, tt.want) {
				t.Errorf("translatePostgresError() = %v, want code %s", got, tt.want.Code)
			}
		})
	}
}
