package classifier

import (
	"regexp"

	"github.com/abhisek/sapprep/internal/domain"
)

// scoringKeywords are matched as whole words during general scoring.
var scoringKeywords = map[domain.Domain][]string{
	domain.OrganizationalComplexity: {
		"organizations", "control tower", "service control policy", "scp",
		"multi-account", "cross-account", "landing zone", "resource access manager",
		"identity center", "sso", "federation", "transit gateway",
		"permissions boundary", "delegated administrator", "consolidated billing",
		"account", "accounts", "organizational unit",
	},
	domain.NewSolutions: {
		"design", "architecture", "serverless", "lambda", "api gateway",
		"dynamodb", "microservices", "high availability", "disaster recovery",
		"multi-region", "aurora", "load balancer", "containers", "ecs", "eks",
		"step functions", "event-driven", "new application", "greenfield",
	},
	domain.MigrationPlanning: {
		"migration", "migrate", "on-premises", "datasync", "database migration service",
		"dms", "snowball", "application migration service", "lift and shift",
		"rehost", "replatform", "refactor", "migration hub", "hybrid",
		"storage gateway", "data center",
	},
	domain.CostControl: {
		"cost", "costs", "pricing", "reserved instance", "reserved instances",
		"savings plan", "savings plans", "spot instance", "spot instances",
		"budget", "budgets", "cost explorer", "rightsizing", "cost-effective",
		"cheapest", "lowest cost", "billing", "intelligent-tiering", "glacier",
	},
	domain.ContinuousImprovement: {
		"monitoring", "cloudwatch", "cloudtrail", "performance", "optimize",
		"improve", "reliability", "troubleshoot", "config rules", "systems manager",
		"x-ray", "security hub", "guardduty", "automation", "remediation",
		"existing", "operational excellence",
	},
}

// sweepKeywords are coarse substrings used when no domain scored strongly.
var sweepKeywords = map[domain.Domain][]string{
	domain.OrganizationalComplexity: {"account", "organization", "governance"},
	domain.NewSolutions:             {"design", "build", "deploy", "new "},
	domain.MigrationPlanning:        {"migrat", "on-prem", "hybrid", "data center", "transfer"},
	domain.CostControl:              {"cost", "price", "pricing", "cheap", "budget", "spend"},
	domain.ContinuousImprovement:    {"monitor", "improv", "optimi", "existing", "troubleshoot"},
}

type keywordGroup struct {
	domain   domain.Domain
	keywords []string
}

// designGroups are checked in order for questions tagged design-solutions.
// The first group with any hit wins.
var designGroups = []keywordGroup{
	{domain.OrganizationalComplexity, []string{
		"organizations", "multi-account", "multiple accounts", "control tower",
		"service control polic", "cross-account", "landing zone",
	}},
	{domain.MigrationPlanning, []string{
		"migrat", "on-premises", "on premises", "hybrid", "data center",
		"datasync", "snowball", "direct connect",
	}},
	{domain.CostControl, []string{
		"cost", "pricing", "reserved instance", "savings plan", "spot instance", "cheap",
	}},
	{domain.ContinuousImprovement, []string{
		"monitor", "cloudwatch", "cloudtrail", "guardduty", "security hub",
		"audit", "compliance",
	}},
}

// strongPhrases override a close score race. Checked in order.
var strongPhrases = []keywordGroup{
	{domain.OrganizationalComplexity, []string{"organizations", "control tower", "service control polic"}},
	{domain.CostControl, []string{"reserved instance", "spot instance", "savings plan"}},
	{domain.MigrationPlanning, []string{"migration hub", "application migration service", "database migration service"}},
	{domain.ContinuousImprovement, []string{"trusted advisor", "cloudwatch alarm", "well-architected tool"}},
}

type compiledKeyword struct {
	re     *regexp.Regexp
	weight int
}

var compiledScoring = compileScoring()

func compileScoring() map[domain.Domain][]compiledKeyword {
	out := make(map[domain.Domain][]compiledKeyword, len(scoringKeywords))
	for d, kws := range scoringKeywords {
		for _, kw := range kws {
			out[d] = append(out[d], compiledKeyword{
				re:     regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`),
				weight: keywordWeight(kw),
			})
		}
	}
	return out
}

func keywordWeight(kw string) int {
	switch n := len(kw); {
	case n > 10:
		return 3
	case n > 5:
		return 2
	default:
		return 1
	}
}
