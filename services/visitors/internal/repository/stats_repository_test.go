package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/visitor-desk/services/visitors/internal/domain"
)

func TestStatsRepository_Count(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewStatsRepository(mock)

	from := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM visitors WHERE gender = $1 AND created_at >= $2 AND created_at < $3")).
		WithArgs("female", from, to).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.Count(context.Background(), domain.CountFilter{Gender: domain.GenderFemale, From: from, To: to})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepository_GenderCounts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewStatsRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT gender, COUNT(*) AS count FROM visitors GROUP BY gender")).
		WillReturnRows(mock.NewRows([]string{"gender", "count"}).AddRow("male", 5).AddRow("female", 3))

	got, err := repo.GenderCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.GenderCounts{Male: 5, Female: 3}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepository_TopAddresses(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewStatsRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY address ORDER BY count DESC, address ASC LIMIT 5")).
		WithArgs("").
		WillReturnRows(mock.NewRows([]string{"address", "count"}).AddRow("Hodan", 9).AddRow("Karan", 2))

	got, err := repo.TopAddresses(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []domain.AddressCount{{Address: "Hodan", Count: 9}, {Address: "Karan", Count: 2}}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepository_ActiveStaffCreators(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewStatsRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT v.user_id) FROM visitors v JOIN users u ON u.id = v.user_id WHERE u.role IN ($1,$2,$3)")).
		WithArgs("super_admin", "admin", "receptionist").
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(2))

	n, err := repo.ActiveStaffCreators(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepository_CompletedVisits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewStatsRepository(mock)

	mock.ExpectQuery("SELECT time_in, time_out FROM visitors WHERE time_out IS NOT NULL").
		WithArgs("", "").
		WillReturnRows(mock.NewRows([]string{"time_in", "time_out"}).AddRow("09:00:00+00", "09:45:00+00"))

	got, err := repo.CompletedVisits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.VisitTimes{{TimeIn: "09:00:00+00", TimeOut: "09:45:00+00"}}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
