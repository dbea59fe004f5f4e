package cassandra

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/roach88/prodtest/internal/catalog"
	"github.com/roach88/prodtest/internal/config"
	"github.com/roach88/prodtest/internal/environment"
	"github.com/roach88/prodtest/internal/harness"
)

// LiveSuite runs the scenarios against the engine and store named by the
// config file in PRODTEST_CONFIG.
type LiveSuite struct {
	suite.Suite
	env      *environment.Environment
	supplier harness.TableInstance
}

func TestLive(t *testing.T) {
	if os.Getenv("PRODTEST_CONFIG") == "" {
		t.Skip("PRODTEST_CONFIG not set")
	}
	suite.Run(t, new(LiveSuite))
}

func (s *LiveSuite) SetupSuite() {
	cfg, err := config.Load(viper.New(), os.Getenv("PRODTEST_CONFIG"))
	s.Require().NoError(err)

	env, err := environment.Open(cfg, zaptest.NewLogger(s.T()))
	s.Require().NoError(err)
	s.env = env

	f, err := env.Fulfiller()
	s.Require().NoError(err)
	fixtures, err := f.Fulfill(context.Background(), Suite{}.Requirements(env.Settings()))
	s.Require().NoError(err)
	s.Require().Len(fixtures, 1)
	s.supplier = fixtures[0].Instance
}

func (s *LiveSuite) TearDownSuite() {
	if s.env != nil {
		s.NoError(s.env.Close())
	}
}

func (s *LiveSuite) TestSupplierRowCount() {
	res, err := s.env.Engine.ExecuteQuery(context.Background(),
		fmt.Sprintf("SELECT count(*) FROM %s", s.supplier.EngineName()))
	s.Require().NoError(err)
	s.NoError(harness.ContainsOnly(res, harness.NewRow(10000)))
}

func (s *LiveSuite) TestSupplierColumnsAddressable() {
	for _, col := range catalog.CassandraSupplier.Columns() {
		_, err := s.env.Engine.ExecuteQuery(context.Background(),
			fmt.Sprintf("SELECT %s FROM %s LIMIT 1", col.Name, s.supplier.EngineName()))
		s.NoError(err, col.Name)
	}
}

func (s *LiveSuite) TestScenarios() {
	for _, sc := range Scenarios() {
		s.Run(sc.Name, func() {
			r, err := s.env.Runner(nil)
			s.Require().NoError(err)
			// the fixture is already in place
			r.Fixtures = nil
			sc.Requires = nil

			report, err := r.Run(context.Background(), []*harness.Scenario{sc})
			s.Require().NoError(err)
			s.Require().Len(report.Outcomes, 1)
			o := report.Outcomes[0]
			s.Equal(harness.StatusPassed, o.Status, o.Message)
		})
	}
}
