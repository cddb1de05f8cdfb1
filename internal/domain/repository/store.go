package repository

import "context"

// Store набор репозиториев, привязанных к одному соединению или транзакции.
type Store interface {
	Orders() OrderRepository
	Disputes() DisputeRepository
	Reviews() ReviewRepository
	Proposals() ProposalRepository
	Gigs() GigRepository
}

// Transactor выполняет fn в одной транзакции. Ошибка из fn откатывает все изменения.
type Transactor interface {
	Store
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
