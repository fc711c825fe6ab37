package tools

import (
	"context"
	"fmt"
	"net/http"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// defaultEventDuration is used when the model omits an end time.
const defaultEventDuration = time.Hour

func newCalendarService(ctx context.Context, httpClient *http.Client) (*calendar.Service, error) {
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("building calendar client: %w", err)
	}
	return svc, nil
}

// AddCalendarEvent returns the add_calendar_event tool, which inserts
// an event into the user's primary Google calendar.
func AddCalendarEvent(auth *GoogleAuth) Tool {
	return Tool{
		Name:        "add_calendar_event",
		Description: "Create an event in the user's calendar. Times must be RFC 3339.",
		Parameters:  schemaFor(&AddCalendarEventInput{}),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			var input AddCalendarEventInput
			if err := decodeArgs(args, &input); err != nil {
				return nil, err
			}
			event, err := buildCalendarEvent(input)
			if err != nil {
				return nil, err
			}

			svc, err := auth.calendarService(ctx)
			if err != nil {
				return nil, err
			}
			created, err := svc.Events.Insert("primary", event).Context(ctx).Do()
			if err != nil {
				return nil, fmt.Errorf("creating event: %w", err)
			}
			return fmt.Sprintf("Event %q created: %s", input.Title, created.HtmlLink), nil
		},
	}
}

// buildCalendarEvent validates the input and maps it to an API event.
func buildCalendarEvent(input AddCalendarEventInput) (*calendar.Event, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	start, err := time.Parse(time.RFC3339, input.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start_time %q: %w", input.StartTime, err)
	}

	end := start.Add(defaultEventDuration)
	if input.EndTime != "" {
		end, err = time.Parse(time.RFC3339, input.EndTime)
		if err != nil {
			return nil, fmt.Errorf("invalid end_time %q: %w", input.EndTime, err)
		}
	}
	if !end.After(start) {
		return nil, fmt.Errorf("end_time must be after start_time")
	}

	return &calendar.Event{
		Summary:     input.Title,
		Description: input.Description,
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
	}, nil
}
