// Package prompt implements the operator dialogue of the schedule command.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/LeventeLantos/ema-scheduler/internal/model"
)

const (
	PlanConfirmation = "y"
	OverridePhrase   = "bad idea"
)

type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

func (t *Terminal) readLine(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(t.out, question)
	line, err := t.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// AskInt asks until the answer is a whole number in [lo, hi].
func (t *Terminal) AskInt(ctx context.Context, question string, lo, hi int) (int, error) {
	for {
		line, err := t.readLine(ctx, question)
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(strings.TrimSpace(line))
		if err == nil && v >= lo && v <= hi {
			return v, nil
		}
		fmt.Fprintf(t.out, "Please enter a whole number from %d-%d.\n", lo, hi)
	}
}

func (t *Terminal) ConfirmConflict(ctx context.Context, participantID int, r model.Recipient) (bool, error) {
	fmt.Fprintln(t.out, "Messages are already scheduled for this participant. Strongly recommend checking TextMagic to avoid scheduling errors.")
	line, err := t.readLine(ctx, fmt.Sprintf("To override and schedule messages anyway, type %q and press enter: ", OverridePhrase))
	if err != nil {
		return false, err
	}
	if line != OverridePhrase {
		fmt.Fprintln(t.out, "Message scheduling cancelled.")
		return false, nil
	}
	return true, nil
}

func (t *Terminal) ConfirmPlan(ctx context.Context, s model.PlanSummary) (bool, error) {
	WriteSummary(t.out, s)
	line, err := t.readLine(ctx, "Is the above information correct? (y/n) ")
	if err != nil {
		return false, err
	}
	if line != PlanConfirmation {
		fmt.Fprintln(t.out, `User input not "y" (lowercase, no spaces). Message scheduling cancelled.`)
		return false, nil
	}
	return true, nil
}

func WriteSummary(w io.Writer, s model.PlanSummary) {
	start := time.Date(2000, 1, 1, s.StartHour, s.StartMinute, 0, 0, time.UTC)

	fmt.Fprintln(w, "Please review data below:")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d messages to be scheduled.\n", s.MessageCount)
	fmt.Fprintf(w, "Participant #: %d\n", s.ParticipantID)
	fmt.Fprintf(w, "Phone Number: %s\n", s.Recipient.Phone)
	fmt.Fprintf(w, "Messaging Start Time: %s\n", start.Format("03:04 PM"))
	if n := len(s.Dates); n > 0 {
		const layout = "Monday January 02, 2006"
		fmt.Fprintf(w, "Messaging Dates: %s - %s\n", s.Dates[0].Format(layout), s.Dates[n-1].Format(layout))
	}
	fmt.Fprintln(w)
}
