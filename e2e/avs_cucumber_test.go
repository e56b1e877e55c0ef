//go:build cucumber

/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package e2e

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/boss-server-ops/Minindn/client"
	"github.com/boss-server-ops/Minindn/producer"
	"github.com/boss-server-ops/Minindn/protocol"
	"github.com/cucumber/godog"
)

// TestFeatures executes the scenarios under features/ via godog.
func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "avs",
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{filepath.Join("features", "avs.feature")},
			Strict:   true,
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	s := &avsState{}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		s.reset()
		return ctx, nil
	})
	ctx.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		return ctx, s.close()
	})

	ctx.Step(`^a producer holding "([^"]*)" for "([^"]*)" "([^"]*)" chunk (\d+)$`, s.producerHolding)
	ctx.Step(`^a producer holding the demo catalog$`, s.producerHoldingDemo)
	ctx.Step(`^the network is running by hand$`, s.networkByHand)
	ctx.Step(`^the optimizer has published (\d+) configurations$`, s.publish)
	ctx.Step(`^client "([^"]*)" requests "([^"]*)" chunk (\d+) accepting "([^"]*)"$`, s.clientRequests)
	ctx.Step(`^the forwarder completes one round$`, s.oneRound)
	ctx.Step(`^configuration (\d+) recommends "([^"]*)" for client "([^"]*)"$`, s.configurationRecommends)
	ctx.Step(`^client "([^"]*)" is told the content was not found$`, s.clientNotFound)
	ctx.Step(`^client "([^"]*)" receives "([^"]*)" from "([^"]*)"$`, s.clientReceives)
	ctx.Step(`^the forwarder sends (\d+) reports? in (\d+) attempts$`, s.reportsSent)
	ctx.Step(`^version (\d+) is queried$`, s.queryVersion)
	ctx.Step(`^the answer is a nack "([^"]*)" with latest version (\d+)$`, s.answerIsNack)
}

type avsState struct {
	catalog  producer.Catalog
	network  *Network
	outcomes map[string]<-chan outcome
	answer   []byte
}

func (s *avsState) reset() {
	s.catalog = producer.Catalog{}
	s.network = nil
	s.outcomes = make(map[string]<-chan outcome)
	s.answer = nil
}

func (s *avsState) close() error {
	if s.network == nil {
		return nil
	}
	return s.network.Stop()
}

func (s *avsState) producerHolding(content, title, resolution string, chunk int) error {
	s.catalog.Add(producer.Key{Title: title, Resolution: resolution, Chunk: uint64(chunk)}, content)
	return nil
}

func (s *avsState) producerHoldingDemo() error {
	s.catalog = producer.DefaultCatalog()
	return nil
}

func (s *avsState) networkByHand() error {
	n, err := NewNetwork(Options{Catalog: s.catalog, Manual: true})
	if err != nil {
		return err
	}
	if err := n.Start(); err != nil {
		return err
	}
	s.network = n
	return nil
}

func (s *avsState) publish(count int) error {
	for i := 0; i < count; i++ {
		s.network.Optimizer.Ingest(&protocol.Report{ForwarderID: "F", ClientRequests: []protocol.ClientRequest{
			{ClientID: fmt.Sprintf("client-%d", i), AcceptableResolutions: []string{"2K"}},
		}})
		if _, ok := s.network.Optimizer.Recompute(); !ok {
			return errors.New("nothing was published")
		}
	}
	return nil
}

func (s *avsState) clientRequests(id, title string, chunk int, accepting string) error {
	c, err := s.network.Client(id, 5*time.Second)
	if err != nil {
		return err
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := c.RequestChunk(context.Background(), title, uint64(chunk), strings.Split(accepting, ","), 0)
		done <- outcome{res, err}
	}()
	s.outcomes[id] = done

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.network.WaitPending(ctx, len(s.outcomes))
}

func (s *avsState) oneRound() error {
	_, redirected, err := s.network.Step(context.Background())
	if err != nil {
		return err
	}
	if redirected == 0 {
		return errors.New("no client was redirected")
	}
	return nil
}

func (s *avsState) configurationRecommends(version int, resolution, id string) error {
	cfg, ok := s.network.Optimizer.Store().Get(uint64(version))
	if !ok {
		return fmt.Errorf("configuration %d is not published", version)
	}
	if cfg[id] != resolution {
		return fmt.Errorf("configuration %d recommends %q for %s, want %q", version, cfg[id], id, resolution)
	}
	return nil
}

func (s *avsState) outcome(id string) (outcome, error) {
	done, ok := s.outcomes[id]
	if !ok {
		return outcome{}, fmt.Errorf("client %s sent no request", id)
	}
	select {
	case o := <-done:
		return o, nil
	case <-time.After(5 * time.Second):
		return outcome{}, fmt.Errorf("client %s did not finish", id)
	}
}

func (s *avsState) clientNotFound(id string) error {
	o, err := s.outcome(id)
	if err != nil {
		return err
	}
	if !errors.Is(o.err, client.ErrContentNotFound) {
		return fmt.Errorf("client %s: got %v, want not found", id, o.err)
	}
	return nil
}

func (s *avsState) clientReceives(id, content, name string) error {
	o, err := s.outcome(id)
	if err != nil {
		return err
	}
	if o.err != nil {
		return fmt.Errorf("client %s: %w", id, o.err)
	}
	if string(o.res.Content) != content || o.res.Name != name {
		return fmt.Errorf("client %s received %q from %s", id, o.res.Content, o.res.Name)
	}
	return nil
}

func (s *avsState) reportsSent(want, attempts int) error {
	sent := 0
	for i := 0; i < attempts; i++ {
		ok, err := s.network.Forwarder.Report(context.Background())
		if err != nil {
			return err
		}
		if ok {
			sent++
		}
	}
	if sent != want {
		return fmt.Errorf("sent %d reports, want %d", sent, want)
	}
	return nil
}

func (s *avsState) queryVersion(version int) error {
	ep := s.network.Bus.Endpoint("probe")
	defer ep.Close()
	answer, err := ep.Express(context.Background(), protocol.DefaultNamespace().VersionName(uint64(version)), nil, time.Second)
	if err != nil {
		return err
	}
	s.answer = answer
	return nil
}

func (s *avsState) answerIsNack(reason string, latest int) error {
	_, nack, err := protocol.DecodeVersionResponse(s.answer)
	if err != nil {
		return err
	}
	if nack == nil {
		return fmt.Errorf("answer is a configuration: %s", s.answer)
	}
	if string(nack.Reason) != reason || uint64(*nack.LatestVersion) != uint64(latest) {
		return fmt.Errorf("got nack %q latest %d", nack.Reason, *nack.LatestVersion)
	}
	return nil
}
