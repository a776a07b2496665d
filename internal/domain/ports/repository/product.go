package repository

import (
	"context"

	"lingua-fulfillment/internal/domain/model"
)

type ProductRepository interface {
	FindByMachineName(ctx context.Context, tx Tx, machineName string) (*model.Product, error)
}
