package aggregate_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/tranvictor/petshop/aggregate"
	"github.com/tranvictor/petshop/query"
)

func TestResolveRole(t *testing.T) {
	aaa := common.HexToAddress("0xAAA")
	bbb := common.HexToAddress("0xBBB")
	ccc := common.HexToAddress("0xCCC")
	resolved := aggregate.Parties{
		Seller: query.Resolved(aaa),
		Buyer:  query.Resolved(bbb),
	}

	tests := []struct {
		name    string
		parties aggregate.Parties
		acting  *common.Address
		want    aggregate.RoleResult
	}{
		{"buyer", resolved, &bbb, aggregate.RoleResult{Role: aggregate.RoleBuyer}},
		{"seller", resolved, &aaa, aggregate.RoleResult{Role: aggregate.RoleSeller}},
		{"stranger", resolved, &ccc, aggregate.RoleResult{Role: aggregate.RoleUnknown}},
		{"both pending", aggregate.Parties{}, &aaa, aggregate.RoleResult{Role: aggregate.RoleUnknown, Loading: true}},
		{
			"seller match while buyer pending",
			aggregate.Parties{Seller: query.Resolved(aaa)},
			&aaa,
			aggregate.RoleResult{Role: aggregate.RoleSeller},
		},
		{
			"buyer match while seller pending",
			aggregate.Parties{Buyer: query.Resolved(bbb)},
			&bbb,
			aggregate.RoleResult{Role: aggregate.RoleUnknown, Loading: true},
		},
		{
			"no match while buyer pending",
			aggregate.Parties{Seller: query.Resolved(aaa)},
			&ccc,
			aggregate.RoleResult{Role: aggregate.RoleUnknown, Loading: true},
		},
		{"not connected", resolved, nil, aggregate.RoleResult{Role: aggregate.RoleUnknown}},
		{
			"seller first when both match",
			aggregate.Parties{Seller: query.Resolved(aaa), Buyer: query.Resolved(aaa)},
			&aaa,
			aggregate.RoleResult{Role: aggregate.RoleSeller},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, aggregate.ResolveRole(tt.parties, tt.acting))
		})
	}
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "buyer", aggregate.RoleBuyer.String())
	assert.Equal(t, "unknown", aggregate.RoleUnknown.String())
}
