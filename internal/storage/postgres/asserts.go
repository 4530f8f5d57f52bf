package postgres

import (
	"github.com/domainwatch/domainwatch/internal/apply"
	"github.com/domainwatch/domainwatch/internal/dispatch"
	"github.com/domainwatch/domainwatch/internal/plan"
	"github.com/domainwatch/domainwatch/internal/scheduler"
)

var (
	_ apply.Store           = (*Repository)(nil)
	_ apply.Tx              = (*Tx)(nil)
	_ plan.Store            = (*Repository)(nil)
	_ scheduler.Store       = (*Repository)(nil)
	_ scheduler.EnrichStore = (*Repository)(nil)
	_ dispatch.Store        = (*Repository)(nil)
)
