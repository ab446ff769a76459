package services

import (
	"sync"

	portsrepo "github.com/mkbook/bookkeeping_backend/internal/core/ports/repositories"
	portssvc "github.com/mkbook/bookkeeping_backend/internal/core/ports/services"
)

// NewContainer wires all services around one shared lock. Mutations take the
// write lock, reads the read lock, so every query sees either all or none of
// a booking's effects.
func NewContainer(repos *portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	var mu sync.RWMutex
	return &portssvc.ServiceContainer{
		Account:     NewAccountService(repos, &mu),
		Budget:      NewBudgetService(repos, &mu),
		Transaction: NewTransactionService(repos, &mu),
		Book:        NewBookService(repos, &mu),
	}
}
