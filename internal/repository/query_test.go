package repository

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/campus-transport/internal/domain"
)

func TestWhereBuilder(t *testing.T) {
	t.Run("empty renders nothing", func(t *testing.T) {
		var w whereBuilder
		assert.Equal(t, "", w.sql())
		assert.Empty(t, w.args)
	})

	t.Run("placeholders are numbered in order", func(t *testing.T) {
		var w whereBuilder
		w.add("campus=%s", "North")
		addIn(&w, "status", []domain.VehicleStatus{domain.VehicleStatusAvailable, domain.VehicleStatusInUse})
		search := "  Van "
		w.addSearch(&search, "code", "plate_number")

		assert.Equal(t, " WHERE campus=$1 AND status IN ($2,$3) AND (LOWER(code) LIKE $4 OR LOWER(plate_number) LIKE $4)", w.sql())
		assert.Equal(t, []any{"North", domain.VehicleStatusAvailable, domain.VehicleStatusInUse, "%van%"}, w.args)
	})

	t.Run("blank search is ignored", func(t *testing.T) {
		var w whereBuilder
		blank := "   "
		w.addSearch(&blank, "name")
		w.addSearch(nil, "name")
		addIn[string](&w, "role", nil)
		assert.Equal(t, "", w.sql())
	})
}

func TestPageClause(t *testing.T) {
	assert.Equal(t, " LIMIT 20 OFFSET 0", pageClause(0, -5, 20))
	assert.Equal(t, " LIMIT 5 OFFSET 10", pageClause(5, 10, 20))
}

func TestTranslateErr(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "vehicles_code_key"}
	err := translateErr(fmt.Errorf("insert: %w", dup))
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.Contains(t, err.Error(), "vehicles_code_key")

	other := errors.New("connection reset")
	assert.Equal(t, other, translateErr(other))
	assert.NoError(t, translateErr(nil))
}

func TestListOrdersEndOnUniqueKey(t *testing.T) {
	// Batched exports page by OFFSET, so ties must be broken by a unique column.
	orders := map[string]string{
		"audit":       auditListOrder,
		"drivers":     driverListOrder,
		"maintenance": maintenanceListOrder,
		"schedule":    eventListOrder,
		"trips":       tripListOrder,
		"users":       userListOrder,
		"vehicles":    vehicleListOrder,
	}
	for name, order := range orders {
		keys := strings.Split(strings.TrimPrefix(order, " ORDER BY "), ",")
		last := strings.Fields(keys[len(keys)-1])[0]
		assert.Equal(t, "id", last, name)
	}
}
