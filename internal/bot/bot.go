package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"focus-planner/internal/dateutil"
	"focus-planner/internal/model"
	"focus-planner/internal/repository"
	"focus-planner/internal/service"
)

// Bot is the Telegram surface of the planner. It is presentation only:
// every behavior lives in the services, the bot parses commands and renders
// replies.
type Bot struct {
	api          *tgbotapi.BotAPI
	log          *log.Logger
	userRepo     *repository.UserRepository
	settingsRepo *repository.SettingsRepository
	bucketSvc    *service.BucketService
	focusSvc     *service.FocusService
	taskSvc      *service.TaskService
	templateSvc  *service.TemplateService
	tracker      *service.FocusTracker
	reminderSvc  *service.ReminderService
}

func New(token string, logger *log.Logger, userRepo *repository.UserRepository, settingsRepo *repository.SettingsRepository, bucketSvc *service.BucketService, focusSvc *service.FocusService, taskSvc *service.TaskService, templateSvc *service.TemplateService, tracker *service.FocusTracker, reminderSvc *service.ReminderService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	logger.Info("bot authorized", "account", api.Self.UserName)

	return &Bot{
		api:          api,
		log:          logger,
		userRepo:     userRepo,
		settingsRepo: settingsRepo,
		bucketSvc:    bucketSvc,
		focusSvc:     focusSvc,
		taskSvc:      taskSvc,
		templateSvc:  templateSvc,
		tracker:      tracker,
		reminderSvc:  reminderSvc,
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil || update.Message.From == nil {
			continue
		}
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			continue
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Error("handle message", "err", err)
		}
	}

	return nil
}

// SendReminders pushes a day summary to every user whose local clock matches
// one of their reminder times right now.
func (b *Bot) SendReminders(ctx context.Context, nowUTC time.Time) error {
	users, err := b.reminderSvc.DueUsers(ctx, nowUTC)
	if err != nil {
		return err
	}
	for _, user := range users {
		date, err := b.reminderSvc.LocalToday(ctx, &user, nowUTC)
		if err != nil {
			b.log.Error("reminder date", "user", user.ID, "err", err)
			continue
		}
		text, err := b.reminderSvc.DaySummary(ctx, &user, date)
		if err != nil {
			b.log.Error("reminder summary", "user", user.ID, "err", err)
			continue
		}
		if err := b.sendText(user.TelegramID, text); err != nil {
			b.log.Error("reminder send", "user", user.ID, "err", err)
		}
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.IsCommand() {
		return b.sendText(msg.Chat.ID, "I only speak commands here. Try /help.")
	}

	b.log.Debug("command", "from", msg.From.ID, "cmd", msg.Command(), "args", msg.CommandArguments())

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	args := strings.Fields(msg.CommandArguments())
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg, user)
	case "help":
		return b.handleHelp(msg)
	case "today":
		return b.handleDay(ctx, msg, user, args, service.ViewPlanned)
	case "all":
		return b.handleDay(ctx, msg, user, args, service.ViewAll)
	case "top3":
		return b.handleTop3(ctx, msg, user, args)
	case "add":
		return b.handleAdd(ctx, msg, user, args)
	case "done":
		return b.handleDone(ctx, msg, user, args)
	case "focus":
		return b.handleFocus(ctx, msg, user, args)
	case "pause":
		return b.handlePause(ctx, msg, user)
	case "minutes":
		return b.handleMinutes(ctx, msg, user, args)
	case "rollover":
		return b.handleRollover(ctx, msg, user, args)
	case "timezone":
		return b.handleTimezone(ctx, msg, user, args)
	case "template":
		return b.handleTemplate(ctx, msg, user, args)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message, user *model.User) error {
	settings, err := b.settingsRepo.GetOrDefault(ctx, user.ID)
	if err != nil {
		return err
	}
	if err := b.settingsRepo.Upsert(ctx, &settings); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi %s!\n<b>Pick a Top 3, focus, carry the rest forward.</b>\n\nStart with /today, fill slots from /top3, run a timer with /focus. Full list: /help", escape(name))
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"• /today [date] — the day's Top 3, carry-over and planned items\n" +
		"• /all [date] — everything incomplete, bucketed around that date\n" +
		"• /top3 [date] — slot states plus candidate tasks to fill them\n" +
		"• /add &lt;category&gt; &lt;title&gt; — add a task for today\n" +
		"• /done &lt;slot&gt; — complete a Top-3 slot\n" +
		"• /focus &lt;slot&gt; — start the focus timer on a linked slot\n" +
		"• /pause — pause the running timer\n" +
		"• /minutes &lt;slot&gt; &lt;n&gt; — log n focused minutes manually\n" +
		"• /rollover [date] — push the day's unfinished tasks to tomorrow\n" +
		"• /timezone &lt;tz&gt; — e.g. /timezone Europe/Berlin\n" +
		"• /template [add &lt;category&gt; &lt;title&gt; | del &lt;id&gt;] — manage the weekly template\n" +
		"Dates are YYYY-MM-DD; omitted means your local today."
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleDay(ctx context.Context, msg *tgbotapi.Message, user *model.User, args []string, view service.View) error {
	date, err := b.dateArg(ctx, user, args)
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}

	if view == service.ViewPlanned {
		text, err := b.reminderSvc.DaySummary(ctx, user, date)
		if err != nil {
			return b.sendText(msg.Chat.ID, "Could not build the summary: "+escape(err.Error()))
		}
		return b.sendText(msg.Chat.ID, text)
	}

	data, err := b.bucketSvc.DayView(ctx, user, date, view)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Could not load the day: "+escape(err.Error()))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🗂 <b>All active around %s</b>\n", date)
	fmt.Fprintf(&sb, "today %d · carry-over %d · snoozed %d\n", len(data.PlannedToday), len(data.CarryOver), len(data.Snoozed))
	for _, c := range model.Categories {
		tasks := data.Categories[c]
		if len(tasks) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n<b>%s</b>\n", c)
		for _, t := range tasks {
			due := "unscheduled"
			if t.DueDate != nil {
				due = *t.DueDate
			}
			fmt.Fprintf(&sb, "• [%d] %s · %s\n", t.ID, escape(t.Title), due)
		}
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleTop3(ctx context.Context, msg *tgbotapi.Message, user *model.User, args []string) error {
	date, err := b.dateArg(ctx, user, args)
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}

	slots, err := b.focusSvc.Slots(ctx, user, date)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Could not load slots: "+escape(err.Error()))
	}
	candidates, err := b.focusSvc.Candidates(ctx, user, date)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Could not load candidates: "+escape(err.Error()))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🎯 <b>Top 3 on %s</b>\n", date)
	running := b.tracker.RunningSlot(user.ID, date)
	for i, slot := range slots {
		state := "—"
		switch slot.State() {
		case service.SlotLinked:
			taskID, _ := slot.TaskID()
			state = fmt.Sprintf("%s (task %d)", escape(slot.Title()), taskID)
		case service.SlotFreeText:
			state = escape(slot.Title())
		}
		if running == i+1 {
			state += " ⏱"
		}
		fmt.Fprintf(&sb, "%d. %s\n", i+1, state)
	}
	if len(candidates) > 0 {
		sb.WriteString("\n<b>Candidates</b>\n")
		for _, t := range candidates {
			fmt.Fprintf(&sb, "• [%d] %s <i>(%s, %s)</i>\n", t.ID, escape(t.Title), t.Category, *t.DueDate)
		}
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleAdd(ctx context.Context, msg *tgbotapi.Message, user *model.User, args []string) error {
	if len(args) < 2 {
		return b.sendText(msg.Chat.ID, "Usage: /add <category> <title>")
	}
	date, err := b.reminderSvc.LocalToday(ctx, user, time.Now().UTC())
	if err != nil {
		return err
	}
	task, err := b.taskSvc.CreateTask(ctx, user, service.TaskInput{
		Title:    strings.Join(args[1:], " "),
		Category: strings.ToLower(args[0]),
		Date:     date,
	})
	if err != nil {
		return b.sendText(msg.Chat.ID, "Could not add: "+escape(err.Error()))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("Added [%d] %s for %s.", task.ID, escape(task.Title), *task.DueDate))
}

func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message, user *model.User, args []string) error {
	slot, ok := slotArg(args)
	if !ok {
		return b.sendText(msg.Chat.ID, "Usage: /done <slot 1-3>")
	}
	date, err := b.reminderSvc.LocalToday(ctx, user, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := b.focusSvc.MarkDone(ctx, user, date, slot); err != nil {
		return b.sendText(msg.Chat.ID, "Could not mark done: "+escape(err.Error()))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("Slot %d done. 💪", slot))
}

func (b *Bot) handleFocus(ctx context.Context, msg *tgbotapi.Message, user *model.User, args []string) error {
	slot, ok := slotArg(args)
	if !ok {
		return b.sendText(msg.Chat.ID, "Usage: /focus <slot 1-3>")
	}
	date, err := b.reminderSvc.LocalToday(ctx, user, time.Now().UTC())
	if err != nil {
		return err
	}
	slots, err := b.focusSvc.Slots(ctx, user, date)
	if err != nil {
		return err
	}
	taskID, linked := slots[slot-1].TaskID()
	if !linked {
		return b.sendText(msg.Chat.ID, "That slot has no linked task; timers run only against tasks.")
	}
	if err := b.tracker.StartTimer(user, date, slot, taskID); err != nil {
		return b.sendText(msg.Chat.ID, "Could not start timer: "+escape(err.Error()))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("⏱ Focusing on slot %d (%s). /pause to stop.", slot, escape(slots[slot-1].Title())))
}

func (b *Bot) handlePause(ctx context.Context, msg *tgbotapi.Message, user *model.User) error {
	date, err := b.reminderSvc.LocalToday(ctx, user, time.Now().UTC())
	if err != nil {
		return err
	}
	slot := b.tracker.RunningSlot(user.ID, date)
	if slot == 0 {
		return b.sendText(msg.Chat.ID, "No timer is running.")
	}
	b.tracker.PauseTimer(user.ID, date, slot)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("Paused slot %d.", slot))
}

func (b *Bot) handleMinutes(ctx context.Context, msg *tgbotapi.Message, user *model.User, args []string) error {
	if len(args) != 2 {
		return b.sendText(msg.Chat.ID, "Usage: /minutes <slot 1-3> <minutes>")
	}
	slot, ok := slotArg(args[:1])
	if !ok {
		return b.sendText(msg.Chat.ID, "Usage: /minutes <slot 1-3> <minutes>")
	}
	minutes, err := strconv.Atoi(args[1])
	if err != nil {
		return b.sendText(msg.Chat.ID, "Minutes must be a number.")
	}

	date, err := b.reminderSvc.LocalToday(ctx, user, time.Now().UTC())
	if err != nil {
		return err
	}
	slots, err := b.focusSvc.Slots(ctx, user, date)
	if err != nil {
		return err
	}
	taskID, linked := slots[slot-1].TaskID()
	if !linked {
		return b.sendText(msg.Chat.ID, "That slot has no linked task.")
	}
	if err := b.tracker.LogManual(ctx, user, taskID, date, minutes); err != nil {
		return b.sendText(msg.Chat.ID, "Could not log: "+escape(err.Error()))
	}

	reply := fmt.Sprintf("Logged %d min on slot %d.", minutes, slot)
	if celebrate, err := b.tracker.CelebrateOnce(ctx, user, taskID, date); err == nil && celebrate {
		reply += " 🎉 Focus target reached!"
	}
	return b.sendText(msg.Chat.ID, reply)
}

func (b *Bot) handleRollover(ctx context.Context, msg *tgbotapi.Message, user *model.User, args []string) error {
	date, err := b.dateArg(ctx, user, args)
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}
	count, err := b.taskSvc.RolloverDay(ctx, user, date)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Could not roll over: "+escape(err.Error()))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("Rolled %d task(s) from %s to the next day.", count, date))
}

func (b *Bot) handleTimezone(ctx context.Context, msg *tgbotapi.Message, user *model.User, args []string) error {
	if len(args) != 1 {
		return b.sendText(msg.Chat.ID, "Usage: /timezone <IANA zone>, e.g. /timezone Europe/Berlin")
	}
	if _, err := time.LoadLocation(args[0]); err != nil {
		return b.sendText(msg.Chat.ID, "Unknown timezone "+escape(args[0])+".")
	}
	settings, err := b.settingsRepo.GetOrDefault(ctx, user.ID)
	if err != nil {
		return err
	}
	settings.Timezone = args[0]
	if err := b.settingsRepo.Upsert(ctx, &settings); err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, "Timezone set to "+escape(args[0])+".")
}

func (b *Bot) handleTemplate(ctx context.Context, msg *tgbotapi.Message, user *model.User, args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "add":
			if len(args) < 3 {
				return b.sendText(msg.Chat.ID, "Usage: /template add <category> <title>")
			}
			item, err := b.templateSvc.AddItem(ctx, user, strings.ToLower(args[1]), strings.Join(args[2:], " "), true)
			if err != nil {
				return b.sendText(msg.Chat.ID, "Could not add item: "+escape(err.Error()))
			}
			return b.sendText(msg.Chat.ID, fmt.Sprintf("Added template item [%d] %s.", item.ID, escape(item.Title)))
		case "del":
			if len(args) != 2 {
				return b.sendText(msg.Chat.ID, "Usage: /template del <item id>")
			}
			itemID, err := strconv.Atoi(args[1])
			if err != nil || itemID < 1 {
				return b.sendText(msg.Chat.ID, "Item id must be a number.")
			}
			if err := b.templateSvc.RemoveItem(ctx, user, uint(itemID)); err != nil {
				return b.sendText(msg.Chat.ID, "Could not remove item: "+escape(err.Error()))
			}
			return b.sendText(msg.Chat.ID, fmt.Sprintf("Removed template item [%d].", itemID))
		default:
			return b.sendText(msg.Chat.ID, "Usage: /template, /template add <category> <title>, /template del <id>")
		}
	}

	items, err := b.templateSvc.ListActiveItems(ctx, user)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if len(items) == 0 {
		return b.sendText(msg.Chat.ID, "No active weekly template.")
	}
	var sb strings.Builder
	sb.WriteString("📐 <b>Weekly template</b>\n")
	for _, item := range items {
		fmt.Fprintf(&sb, "• [%d] %s <i>(%s)</i>\n", item.ID, escape(item.Title), item.Category)
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(sb.String()))
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

// dateArg resolves an optional YYYY-MM-DD argument, defaulting to the user's
// local today.
func (b *Bot) dateArg(ctx context.Context, user *model.User, args []string) (string, error) {
	if len(args) > 0 {
		if !dateutil.Valid(args[0]) {
			return "", fmt.Errorf("dates look like YYYY-MM-DD")
		}
		return args[0], nil
	}
	return b.reminderSvc.LocalToday(ctx, user, time.Now().UTC())
}

func slotArg(args []string) (int, bool) {
	if len(args) < 1 {
		return 0, false
	}
	slot, err := strconv.Atoi(args[0])
	if err != nil || slot < 1 || slot > 3 {
		return 0, false
	}
	return slot, true
}

func (b *Bot) sendText(chatID int64, text string) error {
	reply := tgbotapi.NewMessage(chatID, text)
	reply.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(reply); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func escape(s string) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return replacer.Replace(s)
}
