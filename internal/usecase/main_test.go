package usecase

import (
	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-crm-validation/pkg/logger"
)

func init() {
	logger.Log = zap.NewNop()
}
