// Package todos is the task list feature: a public collection that sends the
// credential when one is stored.
package todos

import (
	"context"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-booking-client/apiclient"
	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
	"github.com/jrsteele09/go-booking-client/resource"
)

// Todo is a single task.
type Todo struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

func (t Todo) GetID() int {
	return t.ID
}

// Filter selects which todos are shown.
type Filter string

const (
	FilterAll       Filter = "All"
	FilterActive    Filter = "Active"
	FilterCompleted Filter = "Completed"
)

// Filters lists the filters in display order.
var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

// Match reports whether t is visible under f.
func (f Filter) Match(t Todo) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// ParseFilter accepts a filter name in any case.
func ParseFilter(name string) (Filter, error) {
	for _, f := range Filters {
		if strings.EqualFold(string(f), strings.TrimSpace(name)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", name)
}

type newTodo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// List is the todo collection with the task list operations.
type List struct {
	*resource.Collection[Todo]
}

// New returns an empty list bound to the todo endpoint.
func New(api *apiclient.Client) (*List, error) {
	collection, err := resource.New[Todo](api, resource.Endpoint{
		Path: apiclient.RouteTodos,
		Auth: apiclient.AuthOptional,
		Noun: "todo",
	})
	if err != nil {
		return nil, err
	}
	return &List{Collection: collection}, nil
}

// Add creates an open todo. A blank title is refused locally.
func (l *List) Add(ctx context.Context, title, description string) (Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Todo{}, apperrors.Wrapf(apperrors.ErrMissingField, "title")
	}
	return l.Create(ctx, newTodo{Title: title, Description: description, Completed: false})
}

// Toggle flips the completed flag of todo id.
func (l *List) Toggle(ctx context.Context, id int) (Todo, error) {
	current, ok := l.Find(id)
	if !ok {
		return Todo{}, apperrors.Wrapf(apperrors.ErrNotFound, "todo %d", id)
	}
	return l.Update(ctx, id, map[string]bool{"completed": !current.Completed})
}

// Rename changes the title of todo id.
func (l *List) Rename(ctx context.Context, id int, title string) (Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Todo{}, apperrors.Wrapf(apperrors.ErrMissingField, "title")
	}
	return l.Update(ctx, id, map[string]string{"title": title})
}

// Delete removes todo id once confirmer agrees.
func (l *List) Delete(ctx context.Context, id int, confirmer resource.Confirmer) error {
	return l.Remove(ctx, id, confirmer)
}

// Visible returns the todos shown under f.
func (l *List) Visible(f Filter) []Todo {
	return l.Filter(f.Match)
}

// Heading is the "N tasks remaining" line for the todos shown under f.
func (l *List) Heading(f Filter) string {
	n := l.Count(f.Match)
	noun := "tasks"
	if n == 1 {
		noun = "task"
	}
	return fmt.Sprintf("%d %s remaining", n, noun)
}
