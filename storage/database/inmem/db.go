package inmemdb

import (
	"sync"

	"github.com/Shin40411/Lms-client/core/activity"
	"github.com/Shin40411/Lms-client/core/auth"
)

type (
	DB struct {
		activity *activityTable
		session  *sessionTable
	}

	activityTable struct {
		rows  []activity.Entry // oldest first
		mutex sync.RWMutex
	}

	sessionTable struct {
		table map[string]auth.Session
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		activity: &activityTable{},
		session:  &sessionTable{table: make(map[string]auth.Session)},
	}
}
