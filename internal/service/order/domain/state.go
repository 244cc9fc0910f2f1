// internal/service/order/domain/state.go
package domain

// State 定义了订单在履约流程中的生命周期状态
type State string

const (
	StatePending      State = "PENDING"      // 订单已记录，尚未开始预占
	StateReserving    State = "RESERVING"    // 正在向库存服务预占
	StateReserved     State = "RESERVED"     // 库存预占成功，等待落库提交
	StateAccepted     State = "ACCEPTED"     // 终态：订单成立，库存已扣减
	StateRejected     State = "REJECTED"     // 终态：业务拒绝（商品不存在/库存不足）
	StateFailed       State = "FAILED"       // 终态：流程失败（含预占结果不确定）
	StateCompensating State = "COMPENSATING" // 预占成功后提交失败，正在归还库存
	StateReleased     State = "RELEASED"     // 终态：补偿完成，库存已归还
)

// validTransitions 是状态机的迁移表。
// Accepted 订单必然对应一次恰好生效的库存扣减；
// 任何越过迁移表的状态写入都是编程错误。
var validTransitions = map[State][]State{
	StatePending:      {StateReserving, StateRejected, StateFailed},
	StateReserving:    {StateReserved, StateRejected, StateFailed},
	StateReserved:     {StateAccepted, StateCompensating},
	StateCompensating: {StateReleased, StateFailed},
}

// CanTransition 判断从 from 到 to 的迁移是否合法。
func CanTransition(from, to State) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal 判断状态是否为终态。
func (s State) IsTerminal() bool {
	switch s {
	case StateAccepted, StateRejected, StateFailed, StateReleased:
		return true
	}
	return false
}
