package order

import (
	"database/sql"

	"go.uber.org/zap"

	"ordersvc/internal/config"
	"ordersvc/internal/infrastructure/natsbus"
	"ordersvc/internal/order/controller"
	"ordersvc/internal/order/repository"
	"ordersvc/internal/order/usecase"
	"ordersvc/internal/payment"
	"ordersvc/internal/product"
)

func NewModule(db *sql.DB, bus *natsbus.Bus, cfg *config.Config, logger *zap.Logger) *controller.OrderController {
	store := repository.NewMySQLOrderRepository(db)
	products := product.NewClient(bus, cfg.NATS.RequestTimeout, logger)
	payments := payment.NewClient(bus, cfg.NATS.RequestTimeout, logger)

	uc := usecase.NewOrderUseCase(
		store,
		products,
		payments,
		cfg.Payment.Currency,
		logger,
	)

	return controller.NewOrderController(uc, logger)
}
