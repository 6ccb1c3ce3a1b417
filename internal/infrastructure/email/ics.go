// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package email

import (
	"fmt"
	"strings"
	"time"

	"github.com/churchnet/calendar-service/internal/domain"
	"github.com/churchnet/calendar-service/internal/domain/models"
)

// ICS constants for consistent values across all generated ICS files
const (
	ICSProdID   = "-//ChurchNet//Calendar Service//EN"
	ICALVersion = "2.0"
	ICALScale   = "GREGORIAN"
)

// ICS organizer information
const (
	OrganizerEmail = "calendar@churchnet.org"
	OrganizerName  = "ChurchNet Calendar"
)

// weekDayLabels maps day-of-week indexes (0=Sunday) to RRULE BYDAY codes.
var weekDayLabels = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// GenerateEventICS generates an ICS invitation for an approved event. The
// event UID keeps the invitation stable across resends.
func GenerateEventICS(notice domain.ApprovalNotice) string {
	dtstamp := time.Now().UTC().Format("20060102T150405Z")

	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString(fmt.Sprintf("VERSION:%s\r\n", ICALVersion))
	ics.WriteString(fmt.Sprintf("PRODID:%s\r\n", ICSProdID))
	ics.WriteString(fmt.Sprintf("CALSCALE:%s\r\n", ICALScale))
	ics.WriteString("METHOD:REQUEST\r\n")

	ics.WriteString("BEGIN:VEVENT\r\n")
	ics.WriteString(fmt.Sprintf("UID:%s\r\n", notice.EventUID))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", dtstamp))
	ics.WriteString(fmt.Sprintf("ORGANIZER;CN=%s:mailto:%s\r\n", OrganizerName, OrganizerEmail))

	date := notice.EventDate
	if notice.StartTime == nil || notice.EndTime == nil {
		// All-day event: DATE values, DTEND is exclusive.
		ics.WriteString(fmt.Sprintf("DTSTART;VALUE=DATE:%s\r\n", date.Format("20060102")))
		ics.WriteString(fmt.Sprintf("DTEND;VALUE=DATE:%s\r\n", date.AddDate(0, 0, 1).Format("20060102")))
	} else {
		start := time.Date(date.Year(), date.Month(), date.Day(),
			notice.StartTime.Hour(), notice.StartTime.Minute(), 0, 0, time.UTC)
		end := time.Date(date.Year(), date.Month(), date.Day(),
			notice.EndTime.Hour(), notice.EndTime.Minute(), 0, 0, time.UTC)
		ics.WriteString(fmt.Sprintf("DTSTART:%s\r\n", start.Format("20060102T150405Z")))
		ics.WriteString(fmt.Sprintf("DTEND:%s\r\n", end.Format("20060102T150405Z")))
	}

	if rrule := generateRRule(notice.Recurrence); rrule != "" {
		ics.WriteString(fmt.Sprintf("RRULE:%s\r\n", rrule))
	}

	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICSText(notice.EventTitle)))
	if notice.Location != "" {
		ics.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeICSText(notice.Location)))
	}
	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("END:VEVENT\r\n")
	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String()
}

// generateRRule converts the recurrence model into an RRULE value.
func generateRRule(recurrence *models.Recurrence) string {
	if recurrence == nil {
		return ""
	}

	var parts []string

	switch recurrence.Frequency {
	case models.RecurrenceDaily:
		parts = append(parts, "FREQ=DAILY")
	case models.RecurrenceWeekly:
		parts = append(parts, "FREQ=WEEKLY")
	case models.RecurrenceMonthly:
		parts = append(parts, "FREQ=MONTHLY")
	default:
		return ""
	}

	if recurrence.Interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", recurrence.Interval))
	}

	if len(recurrence.WeekDays) > 0 && recurrence.Frequency == models.RecurrenceWeekly {
		var days []string
		for _, day := range recurrence.WeekDays {
			if day >= 0 && day < len(weekDayLabels) {
				days = append(days, weekDayLabels[day])
			}
		}
		if len(days) > 0 {
			parts = append(parts, "BYDAY="+strings.Join(days, ","))
		}
	}

	if recurrence.Count > 0 {
		parts = append(parts, fmt.Sprintf("COUNT=%d", recurrence.Count))
	} else if recurrence.Until != nil {
		parts = append(parts, "UNTIL="+recurrence.Until.UTC().Format("20060102T150405Z"))
	}

	return strings.Join(parts, ";")
}

// escapeICSText escapes special characters per RFC 5545
func escapeICSText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
