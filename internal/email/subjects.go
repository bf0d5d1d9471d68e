package email

const (
	subjectScheduleAlertFmt = "Action required: %s is %s"
	subjectDowntimeAlertFmt = "Downtime reported: %s"
)
