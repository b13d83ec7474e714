package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"calagent/internal/models"
)

const (
	credentialsFile = "credentials.json"

	// maxListResults caps how many events a single listing returns.
	maxListResults = 1000
)

// CalendarClient provides a client for interacting with the Google Calendar
// API, bound to one calendar and one display timezone.
type CalendarClient struct {
	service    *calendar.Service
	logger     *slog.Logger
	calendarID string
	timezone   *time.Location
}

// NewClient creates a new Google Calendar client. It handles loading
// credentials and setting up an authenticated HTTP client. Multiple accounts
// are supported through token files like token-personal.json; accountName
// selects which one to use.
func NewClient(ctx context.Context, logger *slog.Logger, clientID, clientSecret, accountName, calendarID string, tz *time.Location) (*CalendarClient, error) {
	config, err := getOAuthConfig(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	tokenFile := fmt.Sprintf("token-%s.json", accountName)
	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token for account %s: %w. Please run the 'auth' command first", accountName, err)
	}

	client := config.Client(ctx, token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	if calendarID == "" {
		calendarID = "primary"
	}
	return &CalendarClient{service: service, logger: logger, calendarID: calendarID, timezone: tz}, nil
}

// Events lists events overlapping [from, to], ordered by start time. A
// non-empty query restricts the listing to full-text matches.
func (c *CalendarClient) Events(ctx context.Context, from, to time.Time, query string) ([]models.Event, error) {
	c.logger.Debug("Fetching events", "calendarID", c.calendarID, "from", from, "to", to, "query", query)

	call := c.service.Events.List(c.calendarID).
		Context(ctx).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		MaxResults(maxListResults).
		OrderBy("startTime")
	if query != "" {
		call = call.Q(query)
	}

	events, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}

	c.logger.Debug("Fetched events from Google Calendar", "count", len(events.Items))
	return c.toInternalEvents(events.Items), nil
}

// FreeBusy returns the busy intervals of the calendar within [from, to].
func (c *CalendarClient) FreeBusy(ctx context.Context, from, to time.Time) ([]models.BusyInterval, error) {
	resp, err := c.service.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: from.Format(time.RFC3339),
		TimeMax: to.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: c.calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query free/busy: %w", err)
	}

	cal, ok := resp.Calendars[c.calendarID]
	if !ok {
		return nil, nil
	}
	var busy []models.BusyInterval
	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			continue
		}
		busy = append(busy, models.BusyInterval{Start: start, End: end})
	}
	return busy, nil
}

// Insert creates a new event on the calendar.
func (c *CalendarClient) Insert(ctx context.Context, title, description string, start, end time.Time) (*models.Event, error) {
	event := &calendar.Event{
		Summary:     title,
		Description: description,
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: c.timezone.String()},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: c.timezone.String()},
	}

	created, err := c.service.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}
	c.logger.Info("Created event on Google Calendar", "title", title, "start", start)
	return c.toInternalEvent(created), nil
}

// Move changes an existing event's start and end times.
func (c *CalendarClient) Move(ctx context.Context, eventID string, start, end time.Time) (*models.Event, error) {
	event, err := c.service.Events.Get(c.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event %s: %w", eventID, err)
	}

	event.Start = &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: c.timezone.String()}
	event.End = &calendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: c.timezone.String()}

	updated, err := c.service.Events.Update(c.calendarID, eventID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update event %s: %w", eventID, err)
	}
	c.logger.Info("Rescheduled event on Google Calendar", "eventID", eventID, "start", start)
	return c.toInternalEvent(updated), nil
}

// Delete removes an event from the calendar.
func (c *CalendarClient) Delete(ctx context.Context, eventID string) error {
	if err := c.service.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}
	c.logger.Info("Deleted event from Google Calendar", "eventID", eventID)
	return nil
}

// toInternalEvents converts Google Calendar events to the internal model.
// Events without a concrete start time (all-day entries) are skipped.
func (c *CalendarClient) toInternalEvents(googleEvents []*calendar.Event) []models.Event {
	var internal []models.Event
	for _, item := range googleEvents {
		if item.Start == nil || item.Start.DateTime == "" {
			continue
		}
		internal = append(internal, *c.toInternalEvent(item))
	}
	return internal
}

func (c *CalendarClient) toInternalEvent(item *calendar.Event) *models.Event {
	startTime, _ := time.Parse(time.RFC3339, item.Start.DateTime)
	endTime, _ := time.Parse(time.RFC3339, item.End.DateTime)

	var attendees []models.Attendee
	for _, a := range item.Attendees {
		attendees = append(attendees, models.Attendee{Email: a.Email, ResponseStatus: a.ResponseStatus})
	}

	event := &models.Event{
		ID:          item.Id,
		Title:       item.Summary,
		Description: item.Description,
		StartTime:   startTime.In(c.timezone),
		EndTime:     endTime.In(c.timezone),
		Location:    item.Location,
		Attendees:   attendees,
		HTMLLink:    item.HtmlLink,
		UID:         item.ICalUID,
	}
	if item.Organizer != nil {
		event.Organizer = item.Organizer.Email
	}
	return event
}

// GetOAuthConfigForAuthFlow is used by the auth command to get the config for the web flow.
func GetOAuthConfigForAuthFlow(clientID, clientSecret string) (*oauth2.Config, error) {
	return getOAuthConfig(clientID, clientSecret)
}

// getOAuthConfig reads credentials and returns an OAuth2 config.
// It prioritizes environment variables over a local credentials.json file.
func getOAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
			Scopes:       []string{calendar.CalendarScope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		if _, ok := err.(*fs.PathError); ok {
			return nil, fmt.Errorf("credentials.json not found. Please provide GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars or place credentials.json in the root directory")
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = "urn:ietf:wg:oauth:2.0:oob" // For desktop app flow
	return config, nil
}

// TokenFromWeb is called by the auth flow to retrieve a token.
func TokenFromWeb(config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(context.Background(), authCode)
}

// SaveToken saves a token to a file path.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// tokenFromFile retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// GetTokenAccounts lists the account names that have a saved token file.
func GetTokenAccounts() ([]string, error) {
	files, err := os.ReadDir(".")
	if err != nil {
		return nil, err
	}

	var accounts []string
	for _, file := range files {
		if strings.HasPrefix(file.Name(), "token-") && strings.HasSuffix(file.Name(), ".json") {
			accountName := strings.TrimSuffix(strings.TrimPrefix(file.Name(), "token-"), ".json")
			accounts = append(accounts, accountName)
		}
	}
	return accounts, nil
}
