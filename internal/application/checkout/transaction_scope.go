package checkout

import (
	"context"

	"github.com/aquapet/backend/internal/domain/catalog"
	"github.com/aquapet/backend/internal/domain/order"
)

// TransactionScope runs webhook reconciliation atomically: the order status
// change and every stock decrement commit or roll back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction. An error from fn rolls
	// the transaction back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to repositories sharing one transaction
type TransactionalRepositories interface {
	Orders() order.OrderRepository
	Products() catalog.ProductRepository
	Variants() catalog.VariantRepository
}

// NoOpTransactionScope runs fn against plain repositories without a transaction.
// Used in unit tests.
type NoOpTransactionScope struct {
	orders   order.OrderRepository
	products catalog.ProductRepository
	variants catalog.VariantRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	orders order.OrderRepository,
	products catalog.ProductRepository,
	variants catalog.VariantRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{orders: orders, products: products, variants: variants}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Orders returns the order repository.
func (s *NoOpTransactionScope) Orders() order.OrderRepository { return s.orders }

// Products returns the product repository.
func (s *NoOpTransactionScope) Products() catalog.ProductRepository { return s.products }

// Variants returns the variant repository.
func (s *NoOpTransactionScope) Variants() catalog.VariantRepository { return s.variants }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
