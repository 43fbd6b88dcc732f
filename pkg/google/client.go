package google

import (
	"context"
	"fmt"

	"github.com/harrisonrobin/whattodo/pkg/auth"
	"github.com/harrisonrobin/whattodo/pkg/index"
	"google.golang.org/api/calendar/v3"
)

// NewClient authorizes against Google with the credentials in dir and binds
// to the calendar whose summary is calendarName.
func NewClient(ctx context.Context, dir, calendarName string, idx *index.EventIndex) (*CalendarClient, error) {
	srv, err := auth.GetCalendarService(ctx, dir)
	if err != nil {
		return nil, err
	}

	calendarID, err := FindCalendar(ctx, srv, calendarName)
	if err != nil {
		return nil, err
	}
	return NewCalendarClient(srv, calendarID, idx), nil
}

// FindCalendar returns the id of the calendar named name.
func FindCalendar(ctx context.Context, srv *calendar.Service, name string) (string, error) {
	calendarList, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to retrieve calendar list: %w", err)
	}
	for _, item := range calendarList.Items {
		if item.Summary == name {
			return item.Id, nil
		}
	}
	return "", fmt.Errorf("calendar '%s' not found", name)
}
