package app

import (
	"time"

	"listsel/internal/source"
)

type itemsLoadedMsg struct {
	entries []source.Entry
	err     error
}

type itemsSavedMsg struct {
	count int
	err   error
}

type reloadMsg struct {
	reload source.Reload
	ok     bool
}

type statusExpiredMsg struct {
	at time.Time
}
