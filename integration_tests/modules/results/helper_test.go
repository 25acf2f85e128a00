package resultsintegrationtests

import (
	"context"
	"fmt"
	"testing"
	"time"

	recordsservice "github.com/Black-And-White-Club/live-results/app/modules/records/application"
	recordsdb "github.com/Black-And-White-Club/live-results/app/modules/records/infrastructure/repositories"
	resultsservice "github.com/Black-And-White-Club/live-results/app/modules/results/application"
	resultsdomain "github.com/Black-And-White-Club/live-results/app/modules/results/domain"
	resultsmetrics "github.com/Black-And-White-Club/live-results/app/modules/results/infrastructure/metrics"
	resultsnotifier "github.com/Black-And-White-Club/live-results/app/modules/results/infrastructure/notifier"
	resultsqueue "github.com/Black-And-White-Club/live-results/app/modules/results/infrastructure/queue"
	resultsdb "github.com/Black-And-White-Club/live-results/app/modules/results/infrastructure/repositories"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	round1 = resultsdomain.RoundID{EventCode: "333", Number: 1}
	round2 = resultsdomain.RoundID{EventCode: "333", Number: 2}
)

// ResultsTestDeps is the results module wired against the shared containers.
type ResultsTestDeps struct {
	Ctx     context.Context
	Repo    resultsdb.Repository
	Records *recordsservice.RecordsService
	Service resultsservice.Service
}

// staticFetcher serves fixed records in place of the public API.
type staticFetcher []resultsdomain.RecordEntry

func (f staticFetcher) Fetch(context.Context) ([]resultsdomain.RecordEntry, error) {
	return f, nil
}

// SetupTestResultsService wires the service the way the module does, with a
// NATS publisher and records restored from Postgres.
func SetupTestResultsService(t *testing.T, records []resultsdomain.RecordEntry) ResultsTestDeps {
	t.Helper()
	ctx := testEnv.Ctx
	require.NoError(t, testEnv.Reset(ctx))

	tracer := noop.NewTracerProvider().Tracer("test")
	recordsSvc := recordsservice.NewRecordsService(staticFetcher(records), recordsdb.NewRepository(testEnv.DB), testEnv.DB, testEnv.Logger, tracer)
	require.NoError(t, recordsSvc.Init(ctx, time.Hour))

	repo := resultsdb.NewRepository(testEnv.DB)
	cache, err := resultsqueue.NewCompetitionCache(resultsqueue.DefaultCacheSize, func(ctx context.Context, id string) (*resultsdomain.Competition, error) {
		return repo.Load(ctx, nil, id)
	}, nil)
	require.NoError(t, err)

	publisher, err := resultsnotifier.NewNATSPublisher(testEnv.Config.NATS.URL, testEnv.Logger)
	require.NoError(t, err)
	notifier := resultsnotifier.NewNotifier(publisher, testEnv.Logger)
	t.Cleanup(func() { _ = notifier.Close() })

	service := resultsservice.NewResultsService(
		repo,
		resultsqueue.NewSerializer(testEnv.Logger, nil),
		cache,
		recordsSvc,
		notifier,
		testEnv.Logger,
		resultsmetrics.NewNoop(),
		tracer,
		testEnv.DB,
	)

	return ResultsTestDeps{Ctx: ctx, Repo: repo, Records: recordsSvc, Service: service}
}

// NewTestCompetition has n accepted 333 competitors and two rounds; the top
// three of round 1 advance.
func NewTestCompetition(id string, n int) *resultsdomain.Competition {
	format, _ := resultsdomain.FormatByID("1")
	c := &resultsdomain.Competition{ID: id, Name: fmt.Sprintf("%s Open", gofakeit.City())}
	for i := 1; i <= n; i++ {
		c.Competitors = append(c.Competitors, resultsdomain.Competitor{
			RegistrantID: i,
			Name:         gofakeit.Name(),
			Country:      resultsdomain.Country{ID: "Poland", ISO2: "PL", ContinentID: "_Europe"},
			Registration: resultsdomain.Registration{Status: resultsdomain.RegistrationAccepted, EventCodes: []string{"333"}},
		})
	}
	c.Events = []*resultsdomain.Event{{
		Code: "333",
		Rounds: []*resultsdomain.Round{
			{
				ID:                   round1,
				Format:               format,
				AdvancementCondition: &resultsdomain.AdvancementCondition{Type: resultsdomain.AdvancementRanking, Level: 3},
				Results:              []*resultsdomain.Result{},
			},
			{ID: round2, Format: format, Results: []*resultsdomain.Result{}},
		},
	}}
	return c
}

// competitionID returns a unique id so tests never share a cached document.
func competitionID() string {
	return "Test" + uuid.NewString()[:8]
}
