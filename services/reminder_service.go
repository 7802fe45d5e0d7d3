// services/reminder_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"visadesk-backend/models"
	"visadesk-backend/utils"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
)

var defaultTemplates = map[string]string{
	models.ReminderTypeAppointment: "Hi [ClientName], this is a reminder of your visa appointment on [Date]. Please bring your passport and supporting documents.",
	models.ReminderTypeVisaExpiry:  "Hi [ClientName], your [VisaType] visa expires on [Date]. Contact us to arrange a renewal.",
}

// DefaultTemplates returns the built-in message for every reminder type
func DefaultTemplates() map[string]string {
	out := make(map[string]string, len(defaultTemplates))
	for k, v := range defaultTemplates {
		out[k] = v
	}
	return out
}

// MessageSender delivers one text message and returns the provider message id
type MessageSender interface {
	Send(to, from, body string) (string, error)
}

// TwilioSender sends SMS and WhatsApp messages through Twilio
type TwilioSender struct {
	client *twilio.RestClient
}

func NewTwilioSender(accountSID, authToken string) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
	}
}

func (s *TwilioSender) Send(to, from, body string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return "", err
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}

type ReminderConfig struct {
	Schedule             string
	SMSFrom              string
	WhatsAppFrom         string
	VisaExpiryWindowDays int
}

type ReminderService struct {
	db     *gorm.DB
	sender MessageSender
	cfg    ReminderConfig
	logger *zap.Logger
	cron   *cron.Cron
	now    func() time.Time
}

func NewReminderService(db *gorm.DB, sender MessageSender, cfg ReminderConfig, logger *zap.Logger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderService{
		db:     db,
		sender: sender,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// StartScheduler registers the daily run on cfg.Schedule
func (s *ReminderService) StartScheduler() error {
	if s.sender == nil {
		return ErrReminderDisabled
	}
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cfg.Schedule, s.SendDailyReminders); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", s.cfg.Schedule, err)
	}
	s.cron.Start()
	s.logger.Info("Reminder scheduler started", zap.String("schedule", s.cfg.Schedule))
	return nil
}

// StopScheduler waits for a running job to finish
func (s *ReminderService) StopScheduler() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info("Reminder scheduler stopped")
}

func (s *ReminderService) SendDailyReminders() {
	s.logger.Info("Starting daily reminder processing")

	var agencies []models.Agency
	if err := s.db.Find(&agencies).Error; err != nil {
		s.logger.Error("Failed to fetch agencies", zap.Error(err))
		return
	}

	for _, agency := range agencies {
		if !agency.RemindersEnabled() {
			continue
		}
		summary := s.ProcessAgencyReminders(context.Background(), agency)
		s.logger.Info("Agency reminders processed",
			zap.String("agency_id", agency.ID.String()),
			zap.Int("sent", summary.Sent),
			zap.Int("failed", summary.Failed))
	}

	s.logger.Info("Daily reminder processing completed")
}

// RunSummary counts the delivery attempts of one reminder run
type RunSummary struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

func (r *RunSummary) record(ok bool) {
	if ok {
		r.Sent++
	} else {
		r.Failed++
	}
}

// RunForAgency processes one agency immediately, outside the schedule
func (s *ReminderService) RunForAgency(ctx context.Context, agencyID uuid.UUID) (RunSummary, error) {
	if s.sender == nil {
		return RunSummary{}, ErrReminderDisabled
	}
	var agency models.Agency
	if err := s.db.WithContext(ctx).First(&agency, "id = ?", agencyID).Error; err != nil {
		return RunSummary{}, err
	}
	return s.ProcessAgencyReminders(ctx, agency), nil
}

// ProcessAgencyReminders sends tomorrow's appointment reminders and visa expiry notices for one agency
func (s *ReminderService) ProcessAgencyReminders(ctx context.Context, agency models.Agency) RunSummary {
	var summary RunSummary
	log := s.logger.With(zap.String("agency_id", agency.ID.String()))
	today := utils.BeginningOfDay(s.now())

	if agency.AppointmentReminders {
		appointments, err := s.appointmentsOn(ctx, agency, today.AddDate(0, 0, 1))
		if err != nil {
			log.Error("Failed to get upcoming appointments", zap.Error(err))
		}
		template := s.template(ctx, agency, models.ReminderTypeAppointment)
		for _, appt := range appointments {
			if appt.Client == nil {
				continue
			}
			msg := RenderReminder(template.Message, *appt.Client, appt.ScheduledAt)
			summary.record(s.deliver(ctx, agency, *appt.Client, template, models.ReminderTypeAppointment, msg))
		}
	}

	if agency.VisaExpiryReminders {
		clients, err := s.visasExpiring(ctx, agency, today)
		if err != nil {
			log.Error("Failed to get expiring visas", zap.Error(err))
		}
		template := s.template(ctx, agency, models.ReminderTypeVisaExpiry)
		for _, client := range clients {
			msg := RenderReminder(template.Message, client, *client.VisaExpirationDate)
			summary.record(s.deliver(ctx, agency, client, template, models.ReminderTypeVisaExpiry, msg))
		}
	}
	return summary
}

func (s *ReminderService) appointmentsOn(ctx context.Context, agency models.Agency, day time.Time) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := s.db.WithContext(ctx).Preload("Client").
		Where("agency_id = ? AND status = ? AND scheduled_at >= ? AND scheduled_at < ?",
			agency.ID, models.AppointmentStatusScheduled, day, day.AddDate(0, 0, 1)).
		Order("scheduled_at").
		Find(&appointments).Error
	return appointments, err
}

// ExpiryNoticeDays are the days-before-expiry on which a visa notice goes out
func (s *ReminderService) ExpiryNoticeDays() []int {
	days := []int{s.cfg.VisaExpiryWindowDays, 7, 1}
	seen := map[int]bool{}
	var out []int
	for _, d := range days {
		if d > 0 && !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

func (s *ReminderService) visasExpiring(ctx context.Context, agency models.Agency, today time.Time) ([]models.Client, error) {
	var all []models.Client
	for _, d := range s.ExpiryNoticeDays() {
		day := today.AddDate(0, 0, d)
		var clients []models.Client
		if err := s.db.WithContext(ctx).
			Where("agency_id = ? AND status = ? AND visa_expiration_date >= ? AND visa_expiration_date < ?",
				agency.ID, models.ClientStatusActive, day, day.AddDate(0, 0, 1)).
			Find(&clients).Error; err != nil {
			return all, err
		}
		all = append(all, clients...)
	}
	return all, nil
}

// template returns the agency's active template for kind, or the built-in default
func (s *ReminderService) template(ctx context.Context, agency models.Agency, kind string) models.ReminderTemplate {
	var tpl models.ReminderTemplate
	err := s.db.WithContext(ctx).
		Where("agency_id = ? AND type = ? AND is_active = ?", agency.ID, kind, true).
		First(&tpl).Error
	if err != nil {
		return models.ReminderTemplate{AgencyID: agency.ID, Type: kind, Message: defaultTemplates[kind]}
	}
	return tpl
}

// RenderReminder fills the [ClientName], [Date] and [VisaType] placeholders
func RenderReminder(template string, client models.Client, date time.Time) string {
	return strings.NewReplacer(
		"[ClientName]", client.FullName(),
		"[Date]", date.Format("Mon, 02 Jan 2006"),
		"[VisaType]", client.VisaType,
	).Replace(template)
}

// ChooseChannel prefers WhatsApp when the agency enabled it and the phone is E.164
func ChooseChannel(agency models.Agency, phone, smsFrom, whatsAppFrom string) (channel, to, from string) {
	cleaned := utils.CleanPhone(phone)
	if agency.WhatsAppNotifications && whatsAppFrom != "" && utils.IsE164(cleaned) {
		return ChannelWhatsApp, "whatsapp:" + cleaned, "whatsapp:" + whatsAppFrom
	}
	return ChannelSMS, cleaned, smsFrom
}

func (s *ReminderService) deliver(ctx context.Context, agency models.Agency, client models.Client, tpl models.ReminderTemplate, kind, message string) bool {
	channel, to, from := ChooseChannel(agency, client.Phone, s.cfg.SMSFrom, s.cfg.WhatsAppFrom)

	status := "sent"
	errorMsg := ""
	sid, err := s.sender.Send(to, from, message)
	if err != nil {
		status = "failed"
		errorMsg = err.Error()
		s.logger.Warn("Failed to send reminder",
			zap.String("client_id", client.ID.String()),
			zap.String("channel", channel),
			zap.Error(err))
	} else {
		s.logger.Info("Reminder sent",
			zap.String("client_id", client.ID.String()),
			zap.String("channel", channel),
			zap.String("sid", sid))
	}

	entry := models.ReminderLog{
		AgencyID:     agency.ID,
		ClientID:     client.ID,
		Type:         kind,
		Message:      message,
		Status:       status,
		ErrorMessage: errorMsg,
		Channel:      channel,
		SentAt:       s.now(),
	}
	if tpl.ID != uuid.Nil {
		id := tpl.ID
		entry.TemplateID = &id
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.logger.Error("Failed to log reminder", zap.String("client_id", client.ID.String()), zap.Error(err))
	}
	return status == "sent"
}
