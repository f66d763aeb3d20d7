package aggregates

// WriteTxOwnership says whether an aggregate opens its own transactions or joins the caller's.
type WriteTxOwnership string

const (
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// ReadPolicy limits which reads an aggregate performs itself.
type ReadPolicy string

// ReadPolicyInvariantScoped means the aggregate only reads rows it needs to check a transition.
// List and report queries go through the table repos.
const ReadPolicyInvariantScoped ReadPolicy = "invariant_scoped_reads"

// Contract describes an aggregate's transaction and read rules so tests can assert them.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	ReadPolicy       ReadPolicy
	Notes            string
}

type Aggregate interface {
	Contract() Contract
}

func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}
