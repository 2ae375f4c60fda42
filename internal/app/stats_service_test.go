package app_test

import (
	"context"
	"testing"
	"time"

	"video-quiz-service/internal/app"
	"video-quiz-service/internal/domain"
	"video-quiz-service/internal/infra/memory"
)

func TestStatsServiceInvalidatesCacheOnContentChange(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	stats := app.NewStatsService(memory.NewStatsCache(store, time.Hour))
	quiz := app.NewQuizService(store, stats)

	before, err := stats.VideoStats(ctx)
	if err != nil {
		t.Fatalf("video stats: %v", err)
	}
	if len(before) != 0 {
		t.Fatalf("expected no stats, got %+v", before)
	}

	if _, err := quiz.CreateVideo(ctx, admin, validVideo()); err != nil {
		t.Fatalf("create: %v", err)
	}
	after, err := stats.VideoStats(ctx)
	if err != nil {
		t.Fatalf("video stats: %v", err)
	}
	if len(after) != 1 {
		t.Fatalf("expected cache invalidated after create, got %+v", after)
	}
}

func TestStatsServiceDashboard(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	authSvc := newAuthService(t, store)
	profile, _ := mustRegister(t, authSvc, "asha@example.com", "9000000001")

	stats := app.NewStatsService(store)
	quiz := app.NewQuizService(store, stats)
	video, err := quiz.CreateVideo(ctx, admin, validVideo())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := quiz.SubmitAnswers(ctx, profile.ID, app.SubmitAnswersInput{
		VideoID: video.ID,
		Answers: []string{"A1", "A2", "A3"},
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	d, err := stats.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(d.VideoStats) != 1 || d.VideoStats[0].TotalAnswers != 3 {
		t.Fatalf("unexpected video stats: %+v", d.VideoStats)
	}
	if len(d.UserStats) != 1 || d.UserStats[0].VideosAnswered != 1 || d.UserStats[0].Name != "Asha" {
		t.Fatalf("unexpected user stats: %+v", d.UserStats)
	}
	if len(d.QuestionInsights) != 3 || d.QuestionInsights[2].QuestionText != "Q3" {
		t.Fatalf("unexpected insights: %+v", d.QuestionInsights)
	}
	if d.GeneratedAt.IsZero() {
		t.Fatalf("expected generation time")
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	stats := app.NewStatsService(store)
	quiz := app.NewQuizService(store, stats)

	ch, cancel, err := stats.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	initial := receive(t, ch)
	if len(initial.VideoStats) != 0 {
		t.Fatalf("expected empty initial snapshot, got %+v", initial.VideoStats)
	}

	if _, err := quiz.CreateVideo(ctx, admin, validVideo()); err != nil {
		t.Fatalf("create: %v", err)
	}
	update := receive(t, ch)
	if len(update.VideoStats) != 1 {
		t.Fatalf("expected snapshot with one video, got %+v", update.VideoStats)
	}
}

func TestSlowSubscriberDoesNotBlockPublishers(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	stats := app.NewStatsService(store)
	quiz := app.NewQuizService(store, stats)

	ch, cancel, err := stats.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	// Never read while publishing more snapshots than the buffer holds.
	for i := 0; i < 20; i++ {
		if _, err := quiz.CreateVideo(ctx, admin, validVideo()); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	var last domain.Dashboard
	for {
		select {
		case d := <-ch:
			last = d
			continue
		default:
		}
		break
	}
	if len(last.VideoStats) != 20 {
		t.Fatalf("expected newest snapshot retained, got %d videos", len(last.VideoStats))
	}
}

func TestCancelClosesSubscription(t *testing.T) {
	stats := app.NewStatsService(newStore(t))
	ch, cancel, err := stats.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()
	cancel()

	<-ch // seeded snapshot
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after cancel")
	}
}

func receive(t *testing.T, ch <-chan domain.Dashboard) domain.Dashboard {
	t.Helper()
	select {
	case d := <-ch:
		return d
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for dashboard")
	}
	return domain.Dashboard{}
}
