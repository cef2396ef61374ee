package pass

// Status 委派单对外可见状态（由出车单字段推导，不单独落库）。
type Status string

const (
	StatusCreated  Status = "created"  // 已建单，车未出
	StatusDeparted Status = "departed" // 已出车，未回场
	StatusReturned Status = "returned" // 已回场
)

// AllowTransition 定义状态机的允许流转关系：只进不退。
var AllowTransition = map[Status][]Status{
	StatusCreated:  {StatusDeparted},
	StatusDeparted: {StatusReturned},
	// 终态：回场后不再流转
	StatusReturned: {},
}

// CanTransition 判断 from -> to 是否是一个允许的状态流转。
// 同态重复提交视为改单，允许。
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	allowed, ok := AllowTransition[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// StatusOf 从出车单推导委派单状态；p 为 nil 表示还没出过车。
func StatusOf(p *Pass) Status {
	if p == nil {
		return StatusCreated
	}
	if p.IsArrived() {
		return StatusReturned
	}
	return StatusDeparted
}
