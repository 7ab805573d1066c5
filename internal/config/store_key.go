package config

import (
	"fmt"
)

type StoreKeyStruct struct{}

func NewStoreKeyStruct() *StoreKeyStruct {
	return &StoreKeyStruct{}
}

// DeadlineKey returns the store key holding the absolute submission deadline
// (unix seconds) for one student's attempt at one test.
func (r *StoreKeyStruct) DeadlineKey(userID, testID string) string {
	return fmt.Sprintf("student:%s:test:%s:deadline", userID, testID)
}

// StartedKey returns the store key for the started-attempt marker set when the
// student confirms Begin Test.
func (r *StoreKeyStruct) StartedKey(userID, testID string) string {
	return fmt.Sprintf("student:%s:test:%s:started", userID, testID)
}

var StoreKey = NewStoreKeyStruct()
