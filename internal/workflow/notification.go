// Package workflow runs the panel's state-changing actions and turns their
// outcome into a notification the user always sees.
package workflow

import "fmt"

// Notification is one of Success, Failure or Loading.
type Notification interface {
	notification()
}

type Success struct {
	Title   string
	Message string
}

type Failure struct {
	Title   string
	Message string
}

type Loading struct {
	Message string
}

func (Success) notification() {}
func (Failure) notification() {}
func (Loading) notification() {}

func Kind(n Notification) string {
	switch n.(type) {
	case Success:
		return "success"
	case Failure:
		return "error"
	case Loading:
		return "loading"
	case nil:
		return ""
	default:
		panic(fmt.Sprintf("workflow: unknown notification %T", n))
	}
}

func Text(n Notification) (title, message string) {
	switch v := n.(type) {
	case Success:
		return v.Title, v.Message
	case Failure:
		return v.Title, v.Message
	case Loading:
		return "Please wait", v.Message
	case nil:
		return "", ""
	default:
		panic(fmt.Sprintf("workflow: unknown notification %T", n))
	}
}

// Fail builds the failure shown for err, using describe to pick between a
// server message and the generic connectivity text.
func Fail(title string, err error, describe func(error) string) Failure {
	msg := err.Error()
	if describe != nil {
		msg = describe(err)
	}
	return Failure{Title: title, Message: msg}
}
