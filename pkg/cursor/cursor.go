// Package cursor defines the common interface satisfied by anything that
// walks a stream of record locators to completion.
package cursor

import (
	"relidx/pkg/recordid"
)

// Cursor traverses a sequence of record locators, such as a B+Tree scan or
// a relation heap scan.
type Cursor interface {
	Next() bool                              //Moves the cursor to the next locator
	GetRecordID() (recordid.RecordID, error) //Returns the locator at the position of the cursor
	Close()                                  //Called to indicate that the cursor is done being used
}
