package agent

import (
	"context"

	"calagent/internal/metrics"
	"calagent/internal/models"
	"calagent/internal/nlp"
)

const unrecognizedMessage = "I couldn't understand that command. " +
	"Try something like 'schedule a meeting with Alex' or 'suggest times for meeting with Taylor'."

// Handle interprets a free-text command and runs the matching operation.
// Every outcome, including unrecognized input, is reported as a Result; no
// errors escape to the caller.
func (a *Agent) Handle(ctx context.Context, text string) models.Result {
	started := a.now()
	cmd, err := nlp.Parse(text, a.now(), a.loc)
	metrics.CommandsTotal.WithLabelValues(string(cmd.Intent)).Inc()

	var res models.Result
	switch {
	case err != nil:
		res = models.Errorf("%v", err)
	case cmd.Intent == nlp.IntentFindMeetings:
		res = a.FindMeetings(ctx, cmd.Person, cmd.RangeStart, cmd.RangeEnd)
	case cmd.Intent == nlp.IntentViewDay:
		res = a.ViewDay(ctx, cmd.Day)
	case cmd.Intent == nlp.IntentCheckAvailability:
		res = a.CheckAvailability(ctx, cmd.Day)
	case cmd.Intent == nlp.IntentSchedule:
		res = a.ScheduleMeeting(ctx, cmd.Person, cmd.When, cmd.DurationMinutes)
	case cmd.Intent == nlp.IntentSuggest:
		res = a.SuggestTimes(ctx, cmd.Person)
	default:
		res = models.Result{Status: models.StatusError, Message: unrecognizedMessage}
	}

	metrics.ResultsTotal.WithLabelValues(string(res.Status)).Inc()
	metrics.CommandDurationSeconds.Observe(a.now().Sub(started).Seconds())
	a.logger.Info("Handled command.", "intent", cmd.Intent, "status", res.Status)
	return res
}
