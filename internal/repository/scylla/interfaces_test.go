package scylla_test

import (
	"xyz_store/internal/repository/scylla"
	"xyz_store/internal/service"
)

var (
	_ service.CatalogRepository      = (*scylla.Store)(nil)
	_ service.PriceHistoryRepository = (*scylla.Store)(nil)
	_ service.ReviewRepository       = (*scylla.Store)(nil)
	_ service.OrderRepository        = (*scylla.Store)(nil)
	_ service.SaleRepository         = (*scylla.Store)(nil)
)
