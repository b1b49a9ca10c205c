package store_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/supplysight/ragapi/internal/data/redisStore"
	"github.com/supplysight/ragapi/internal/data/store"
	"github.com/supplysight/ragapi/internal/domain/jobModel"
)

func newTestStore(t *testing.T) (*redisStore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return redisStore.NewWithClient(client), mr
}

func TestRedisJobStore_Lifecycle(t *testing.T) {
	internal, mr := newTestStore(t)
	jobStore := store.NewRedisJobStore(internal, time.Hour)

	ctx := context.Background()
	jobID := "job_abc_123"
	testJob := jobModel.Job{
		Id:      jobID,
		JobType: jobModel.JobTypeIngest,
		Status:  jobModel.JobStatusRunning,
		Payload: jobModel.JobPayload{
			DocumentID:   "doc-1",
			DocumentName: "handbook.pdf",
		},
	}

	t.Run("SaveAndGetRoundtrip", func(t *testing.T) {
		if err := jobStore.SaveJob(ctx, testJob); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}

		got, found := jobStore.GetJob(ctx, jobID)
		if !found {
			t.Fatal("job was saved but not found")
		}
		if got.Payload.DocumentName != testJob.Payload.DocumentName {
			t.Errorf("document name = %q, want %q", got.Payload.DocumentName, testJob.Payload.DocumentName)
		}
		if got.Status != jobModel.JobStatusRunning {
			t.Errorf("status = %q, want RUNNING", got.Status)
		}
	})

	t.Run("GetNonExistentJob", func(t *testing.T) {
		if _, found := jobStore.GetJob(ctx, "ghost-id"); found {
			t.Error("expected found=false for non-existent key")
		}
	})

	t.Run("DeleteJob", func(t *testing.T) {
		jobStore.DeleteJob(ctx, jobID)
		if mr.Exists(jobID) {
			t.Error("job still exists after DeleteJob")
		}
	})
}

func TestRedisJobStore_Race(t *testing.T) {
	internal, _ := newTestStore(t)
	jobStore := store.NewRedisJobStore(internal, time.Hour)

	ctx := context.Background()
	job := jobModel.Job{Id: "race-job"}

	var wg sync.WaitGroup
	const workers = 50
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = jobStore.SaveJob(ctx, job)
			_, _ = jobStore.GetJob(ctx, "race-job")
		}()
	}
	wg.Wait()
}

func TestRedisConversationStore_Lifecycle(t *testing.T) {
	internal, _ := newTestStore(t)
	convStore := store.NewRedisConversationStore(internal, time.Hour)
	ctx := context.Background()

	if convStore.ValidateConversationID(ctx, "conv-1") {
		t.Fatal("unknown conversation id should not validate")
	}

	if err := convStore.InitConversation(ctx, "conv-1"); err != nil {
		t.Fatalf("InitConversation failed: %v", err)
	}
	if !convStore.ValidateConversationID(ctx, "conv-1") {
		t.Fatal("initialized conversation should validate")
	}

	err := convStore.AppendExchange(ctx, "conv-1", jobModel.Exchange{
		Question: "What is X?",
		Answer:   "X is a widget.",
		Sources:  []string{"x.pdf"},
	})
	if err != nil {
		t.Fatalf("AppendExchange failed: %v", err)
	}

	history, err := convStore.GetHistory(ctx, "conv-1")
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history))
	}
	if !strings.Contains(history[0], "What is X?") || !strings.Contains(history[0], "X is a widget.") {
		t.Errorf("history entry missing content: %q", history[0])
	}

	if err := convStore.DeleteConversation(ctx, "conv-1"); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}
	if convStore.ValidateConversationID(ctx, "conv-1") {
		t.Error("deleted conversation should not validate")
	}
}

func TestRedisConversationStore_HistoryWindow(t *testing.T) {
	internal, _ := newTestStore(t)
	convStore := store.NewRedisConversationStore(internal, time.Hour)
	ctx := context.Background()

	if err := convStore.InitConversation(ctx, "conv-long"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 8; i++ {
		err := convStore.AppendExchange(ctx, "conv-long", jobModel.Exchange{
			Question: "q" + string(rune('0'+i)),
			Answer:   "a" + string(rune('0'+i)),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	history, err := convStore.GetHistory(ctx, "conv-long")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) > 5 {
		t.Fatalf("history window exceeded: got %d entries", len(history))
	}
	// the newest exchange must be present
	if !strings.Contains(history[len(history)-1], "q7") {
		t.Errorf("last entry = %q, want the newest exchange", history[len(history)-1])
	}
}

func TestInMemoryStores(t *testing.T) {
	ctx := context.Background()

	t.Run("JobStore", func(t *testing.T) {
		js := store.NewInMemoryJobStore()
		if err := js.SaveJob(ctx, jobModel.Job{Id: "j1"}); err != nil {
			t.Fatal(err)
		}
		if _, found := js.GetJob(ctx, "j1"); !found {
			t.Error("saved job not found")
		}
		js.DeleteJob(ctx, "j1")
		if _, found := js.GetJob(ctx, "j1"); found {
			t.Error("deleted job still found")
		}
	})

	t.Run("ConversationStore", func(t *testing.T) {
		cs := store.NewInMemoryConversationStore()
		if err := cs.InitConversation(ctx, "c1"); err != nil {
			t.Fatal(err)
		}
		if !cs.ValidateConversationID(ctx, "c1") {
			t.Error("initialized conversation should validate")
		}
		if err := cs.AppendExchange(ctx, "c1", jobModel.Exchange{Question: "q", Answer: "a"}); err != nil {
			t.Fatal(err)
		}
		history, err := cs.GetHistory(ctx, "c1")
		if err != nil {
			t.Fatal(err)
		}
		if len(history) != 1 {
			t.Errorf("expected 1 entry, got %d", len(history))
		}
	})
}
