package service

import (
	"time"

	"paceclass/backend/internal/dto"
	"paceclass/backend/internal/model"
)

// ── DTO 转换辅助 ──

const dateLayout = "2006-01-02"

func fmtTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func fmtTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func strPtrValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toSubjectBrief(subject *model.Subject) *dto.SubjectBrief {
	if subject == nil {
		return nil
	}
	return &dto.SubjectBrief{ID: subject.SubjectID, Name: subject.Name}
}

func toTopicBrief(topic *model.Topic) *dto.TopicBrief {
	if topic == nil {
		return nil
	}
	return &dto.TopicBrief{
		ID:              topic.TopicID,
		Title:           topic.Title,
		WeekNumber:      topic.WeekNumber,
		PeriodsRequired: topic.PeriodsRequired,
	}
}

func toSlotResponse(slot *model.ScheduleSlot) *dto.ScheduleSlotResponse {
	return &dto.ScheduleSlotResponse{
		ID:                       slot.SlotID,
		StudentID:                slot.StudentID,
		TermID:                   slot.TermID,
		WeekNumber:               slot.WeekNumber,
		LessonDate:               slot.LessonDate.Format(dateLayout),
		PeriodNumber:             slot.PeriodNumber,
		Subject:                  toSubjectBrief(slot.Subject),
		Topic:                    toTopicBrief(slot.Topic),
		LessonStart:              fmtTime(slot.LessonStart),
		LessonEnd:                fmtTime(slot.LessonEnd),
		AssessWindowStart:        fmtTime(slot.AssessWindowStart),
		AssessWindowEnd:          fmtTime(slot.AssessWindowEnd),
		GracePeriodEnd:           fmtTimePtr(slot.GracePeriodEnd),
		Completed:                slot.Completed,
		CompletedAt:              fmtTimePtr(slot.CompletedAt),
		Source:                   slot.Source,
		Status:                   slot.Status,
		MissingTopic:             slot.MissingTopic,
		LessonAssignmentMethod:   slot.LessonAssignmentMethod,
		PreviousSlotID:           strPtrValue(slot.PreviousSlotID),
		RequiresCustomAssessment: slot.RequiresCustomAssessment,
		CustomAssessmentReady:    slot.CustomAssessmentReady,
		MarkedIncompleteReason:   strPtrValue(slot.MarkedIncompleteReason),
	}
}

func toProgressResponse(record *model.ProgressRecord, accessState string) *dto.ProgressRecordResponse {
	return &dto.ProgressRecordResponse{
		ID:                       record.RecordID,
		StudentID:                record.StudentID,
		SlotID:                   record.SlotID,
		TermID:                   record.TermID,
		LessonDate:               record.LessonDate.Format(dateLayout),
		PeriodNumber:             record.PeriodNumber,
		Subject:                  toSubjectBrief(record.Subject),
		WindowStart:              fmtTime(record.WindowStart),
		WindowEnd:                fmtTime(record.WindowEnd),
		GracePeriodEnd:           fmtTimePtr(record.GracePeriodEnd),
		Completed:                record.Completed,
		CompletedAt:              fmtTimePtr(record.CompletedAt),
		IncompleteReason:         strPtrValue(record.IncompleteReason),
		AutoMarkedIncompleteAt:   fmtTimePtr(record.AutoMarkedIncompleteAt),
		PeriodSequence:           record.PeriodSequence,
		TotalPeriodsInSequence:   record.TotalPeriodsInSequence,
		PreviousRecordID:         strPtrValue(record.PreviousRecordID),
		RequiresCustomAssessment: record.RequiresCustomAssessment,
		CustomAssessmentReady:    record.CustomAssessmentReady,
		AccessState:              accessState,
	}
}

func toTimetableEntryResponse(entry *model.TimetableEntry) *dto.TimetableEntryResponse {
	return &dto.TimetableEntryResponse{
		ID:          entry.EntryID,
		StudentID:   entry.StudentID,
		DayOfWeek:   entry.DayOfWeek,
		SubjectName: entry.SubjectName,
		SubjectID:   strPtrValue(entry.SubjectID),
		StartTime:   entry.StartTime,
		EndTime:     entry.EndTime,
		Source:      entry.Source,
		CreatedAt:   fmtTime(entry.CreatedAt),
		UpdatedAt:   fmtTime(entry.UpdatedAt),
	}
}
