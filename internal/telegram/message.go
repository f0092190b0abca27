package telegram

import "fmt"

// render produces one of two mutually exclusive Markdown templates. The
// doctor-facing one announces the booking with the patient's name; the
// patient-facing one confirms it with the doctor's name.
func (n MeetingNotification) render() string {
	if n.ForDoctor {
		return fmt.Sprintf(`🩺 *New Appointment Booked*

A patient has booked a telemedicine appointment with you.

📅 *Date:* %s
⏰ *Time:* %s
🧑 *Patient:* %s

🔗 *Meeting Details:*
Meeting Code: `+"`%s`"+`
Direct Link: %s

Please join 5 minutes before the scheduled time.`,
			n.Date, n.Time, n.PatientName, n.MeetingCode, n.MeetingLink)
	}

	return fmt.Sprintf(`🩺 *Appointment Confirmed!*

Your appointment has been booked successfully.

📅 *Date:* %s
⏰ *Time:* %s
👨‍⚕️ *Doctor:* %s

🔗 *Meeting Details:*
Meeting Code: `+"`%s`"+`
Direct Link: %s

You can join the meeting by:
1. Clicking the direct link above
2. Or entering the meeting code on our website

Please join 5 minutes before your scheduled time.`,
		n.Date, n.Time, n.DoctorName, n.MeetingCode, n.MeetingLink)
}
