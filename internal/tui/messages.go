package tui

import (
	"github.com/matheuskafuri/dropwatch/internal/monitor"
	"github.com/matheuskafuri/dropwatch/internal/store"
)

type opportunitiesLoadedMsg struct {
	ops []store.Opportunity
}

type loadErrMsg struct {
	err error
}

type refreshDoneMsg struct {
	report monitor.Report
	err    error
}
