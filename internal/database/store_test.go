package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/thereayou/taskflow/internal/services"
	"gorm.io/gorm"
)

// Проверка соответствия интерфейсам на этапе компиляции.
var (
	_ services.MembershipStore  = (*Database)(nil)
	_ services.TaskStore        = (*Database)(nil)
	_ services.NotificationSink = (*Database)(nil)
)

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(gorm.ErrRecordNotFound), services.ErrNotFound)
	assert.ErrorIs(t, notFound(gorm.ErrInvalidTransaction), gorm.ErrInvalidTransaction)
	assert.NoError(t, notFound(nil))
}

func TestConnectRequiresDSN(t *testing.T) {
	_, err := Connect("")
	assert.Error(t, err)
}
