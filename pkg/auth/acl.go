package auth

import (
	"fmt"
	"strconv"
	"strings"
)

// ACLAction defines whether an ACL permits or denies IDs matching its rules.
type ACLAction int

const (
	ACLPermit ACLAction = iota
	ACLDeny
)

// String returns the string representation of the ACL action.
func (a ACLAction) String() string {
	switch a {
	case ACLPermit:
		return "PERMIT"
	case ACLDeny:
		return "DENY"
	default:
		return "UNKNOWN"
	}
}

// RuleType defines the shape of a single ACL rule.
type RuleType int

const (
	RuleTypeAll RuleType = iota
	RuleTypeSingle
	RuleTypeRange
)

// ACLRule is a single rule within an ACL: match everything, one ID, or an
// inclusive ID range.
type ACLRule struct {
	Type  RuleType
	ID    uint32 // For RuleTypeSingle
	Start uint32 // For RuleTypeRange
	End   uint32 // For RuleTypeRange
}

// String returns the string representation of the rule.
func (r ACLRule) String() string {
	switch r.Type {
	case RuleTypeAll:
		return "ALL"
	case RuleTypeSingle:
		return fmt.Sprintf("%d", r.ID)
	case RuleTypeRange:
		return fmt.Sprintf("%d-%d", r.Start, r.End)
	default:
		return "UNKNOWN"
	}
}

// Matches reports whether id matches this rule.
func (r ACLRule) Matches(id uint32) bool {
	switch r.Type {
	case RuleTypeAll:
		return true
	case RuleTypeSingle:
		return r.ID == id
	case RuleTypeRange:
		return id >= r.Start && id <= r.End
	default:
		return false
	}
}

// ACL is a REG_ACL-style access control list: a PERMIT or DENY action
// applied to whichever rule in the list matches a given repeater ID.
type ACL struct {
	Action ACLAction
	Rules  []ACLRule
}

// String returns the ACL's "ACTION:RULE[,RULE]..." representation.
func (a *ACL) String() string {
	rules := make([]string, 0, len(a.Rules))
	for _, rule := range a.Rules {
		rules = append(rules, rule.String())
	}
	return fmt.Sprintf("%s:%s", a.Action.String(), strings.Join(rules, ","))
}

// Check reports whether id is allowed by this ACL.
func (a *ACL) Check(id uint32) bool {
	matches := false
	for _, rule := range a.Rules {
		if rule.Matches(id) {
			matches = true
			break
		}
	}

	if a.Action == ACLPermit {
		return matches
	}
	return !matches
}

// ParseACL parses an ACL string in the format "ACTION:RULE[,RULE]...".
// Examples: "PERMIT:ALL", "DENY:1", "PERMIT:3100-3199", "DENY:1,1000-2000,4500".
func ParseACL(rule string) (*ACL, error) {
	if rule == "" {
		return nil, fmt.Errorf("empty ACL rule")
	}

	parts := strings.SplitN(rule, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid ACL format: missing colon")
	}

	var action ACLAction
	switch strings.ToUpper(parts[0]) {
	case "PERMIT":
		action = ACLPermit
	case "DENY":
		action = ACLDeny
	default:
		return nil, fmt.Errorf("invalid ACL action: %s", parts[0])
	}

	acl := &ACL{Action: action, Rules: make([]ACLRule, 0)}

	for _, ruleStr := range strings.Split(parts[1], ",") {
		ruleStr = strings.TrimSpace(ruleStr)
		if ruleStr == "" {
			continue
		}

		if strings.ToUpper(ruleStr) == "ALL" {
			acl.Rules = append(acl.Rules, ACLRule{Type: RuleTypeAll})
			continue
		}

		if strings.Contains(ruleStr, "-") {
			rangeParts := strings.Split(ruleStr, "-")
			if len(rangeParts) != 2 {
				return nil, fmt.Errorf("invalid range format: %s", ruleStr)
			}

			start, err := strconv.ParseUint(strings.TrimSpace(rangeParts[0]), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid range start: %s", rangeParts[0])
			}
			end, err := strconv.ParseUint(strings.TrimSpace(rangeParts[1]), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid range end: %s", rangeParts[1])
			}
			if start > end {
				return nil, fmt.Errorf("invalid range: start (%d) > end (%d)", start, end)
			}

			acl.Rules = append(acl.Rules, ACLRule{Type: RuleTypeRange, Start: uint32(start), End: uint32(end)})
			continue
		}

		id, err := strconv.ParseUint(ruleStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid ID: %s", ruleStr)
		}
		acl.Rules = append(acl.Rules, ACLRule{Type: RuleTypeSingle, ID: uint32(id)})
	}

	if len(acl.Rules) == 0 {
		return nil, fmt.Errorf("no rules specified")
	}

	return acl, nil
}

// ACLPolicy is a Policy backed by a REG_ACL range/ID list: AllowPeerID
// defers to the ACL, and any password presented is accepted once the ID
// itself clears the ACL. Pair it with a ListPolicy in front (checking
// passwords) when both ID gating and per-ID passwords are needed.
type ACLPolicy struct {
	acl *ACL
}

// NewACLPolicy wraps acl as a Policy.
func NewACLPolicy(acl *ACL) *ACLPolicy {
	return &ACLPolicy{acl: acl}
}

func (p *ACLPolicy) AllowPeerID(peerID uint32) bool { return p.acl.Check(peerID) }

func (p *ACLPolicy) CheckPassword(uint32, string) bool { return true }
