package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"attendly/internal/attendance/models"
	"attendly/internal/geofence"
	id "attendly/pkg/domain"
	"attendly/pkg/sentinel"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx   context.Context
	db    sqlmock.Sqlmock
	store *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupTest() {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	s.Require().NoError(err)
	s.ctx = context.Background()
	s.db = mock
	s.store = NewPostgresStore(db)
}

func (s *PostgresStoreSuite) TearDownTest() {
	s.NoError(s.db.ExpectationsWereMet())
}

func (s *PostgresStoreSuite) record() *models.AttendanceRecord {
	return &models.AttendanceRecord{
		ID:          id.NewRecordID(),
		SessionID:   id.NewSessionID(),
		UserID:      id.NewUserID(),
		CheckInTime: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		Lat:         6.5244,
		Lon:         3.3791,
	}
}

func (s *PostgresStoreSuite) TestCreateIfAbsentInserts() {
	record := s.record()
	s.db.ExpectExec(`INSERT INTO attendance_records`).
		WithArgs(uuid.UUID(record.ID), uuid.UUID(record.SessionID), uuid.UUID(record.UserID),
			record.CheckInTime, record.Lat, record.Lon, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.NoError(s.store.CreateIfAbsent(s.ctx, record))
}

func (s *PostgresStoreSuite) TestCreateIfAbsentReportsDuplicate() {
	record := s.record()
	// ON CONFLICT DO NOTHING swallows the conflict; zero rows affected
	// is the duplicate signal.
	s.db.ExpectExec(`INSERT INTO attendance_records`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	s.ErrorIs(s.store.CreateIfAbsent(s.ctx, record), sentinel.ErrDuplicate)
}

func (s *PostgresStoreSuite) TestCompleteCheckoutFlipsOpenRecord() {
	s.db.ExpectExec(`UPDATE attendance_records`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	obs := models.Observation{Coordinate: geofence.Coordinate{Lat: 6.5, Lon: 3.3}}
	closed, err := s.store.CompleteCheckout(s.ctx, id.NewSessionID(), id.NewUserID(), time.Now(), obs)
	s.Require().NoError(err)
	s.True(closed)
}

func (s *PostgresStoreSuite) TestCompleteCheckoutClampsToCheckIn() {
	// The SET clause must take the later of check-in and the supplied
	// timestamp; a plain assignment would let a stale racer write
	// check_out < check_in.
	s.db.ExpectExec(`SET check_out_time = GREATEST\(check_in_time, \$3\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	closed, err := s.store.CompleteCheckout(s.ctx, id.NewSessionID(), id.NewUserID(),
		time.Date(2025, 3, 10, 8, 59, 0, 0, time.UTC), models.Observation{})
	s.Require().NoError(err)
	s.True(closed)
}

func (s *PostgresStoreSuite) TestCompleteCheckoutIgnoresClosedRecord() {
	s.db.ExpectExec(`UPDATE attendance_records`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	closed, err := s.store.CompleteCheckout(s.ctx, id.NewSessionID(), id.NewUserID(), time.Now(), models.Observation{})
	s.Require().NoError(err)
	s.False(closed)
}

func (s *PostgresStoreSuite) TestFindByKeyNotFound() {
	s.db.ExpectQuery(`SELECT record_id, session_id, user_id`).
		WillReturnRows(sqlmock.NewRows([]string{
			"record_id", "session_id", "user_id", "check_in_time", "check_out_time",
			"gps_lat", "gps_lon", "vpn_detected", "face_match_score",
		}))

	_, err := s.store.FindByKey(s.ctx, id.NewSessionID(), id.NewUserID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestFindByKeyScansNullableColumns() {
	sessionID := id.NewSessionID()
	userID := id.NewUserID()
	recordID := id.NewRecordID()
	checkIn := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	checkOut := checkIn.Add(time.Hour)

	s.db.ExpectQuery(`SELECT record_id, session_id, user_id`).
		WithArgs(uuid.UUID(sessionID), uuid.UUID(userID)).
		WillReturnRows(sqlmock.NewRows([]string{
			"record_id", "session_id", "user_id", "check_in_time", "check_out_time",
			"gps_lat", "gps_lon", "vpn_detected", "face_match_score",
		}).AddRow(uuid.UUID(recordID), uuid.UUID(sessionID), uuid.UUID(userID), checkIn, checkOut, 6.5, 3.3, false, 0.91))

	record, err := s.store.FindByKey(s.ctx, sessionID, userID)
	s.Require().NoError(err)
	s.Equal(recordID, record.ID)
	s.Require().NotNil(record.CheckOutTime)
	s.Equal(checkOut, *record.CheckOutTime)
	s.Require().NotNil(record.Similarity)
	s.Equal(0.91, *record.Similarity)
}
