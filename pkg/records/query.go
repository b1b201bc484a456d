package records

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/trailbaseio/trailbase-go/pkg/client"
)

// CompareOp перечисляет операторы сравнения фильтра. Нулевое значение -
// отсутствие оператора, лист кодируется без суффикса [$op].
type CompareOp int

const (
	Equal CompareOp = iota + 1
	NotEqual
	LessThan
	LessThanEqual
	GreaterThan
	GreaterThanEqual
	Like
	Regexp
)

// symbol возвращает представление оператора в строке запроса.
func (op CompareOp) symbol() string {
	switch op {
	case Equal:
		return "$eq"
	case NotEqual:
		return "$ne"
	case LessThan:
		return "$lt"
	case LessThanEqual:
		return "$lte"
	case GreaterThan:
		return "$gt"
	case GreaterThanEqual:
		return "$gte"
	case Like:
		return "$like"
	case Regexp:
		return "$re"
	}
	panic(fmt.Sprintf("unknown compare op: %d", int(op)))
}

// Filter is a node of the recursive list/subscribe predicate tree: either
// a single column comparison or an And/Or composite. The tree encodes to
// the query string grammar
//
//	root[col][$op]=value
//	root[$and][i]...  /  root[$or][i]...
//
// with array order preserved; the index is significant and round-trips.
type Filter interface {
	appendParams(path string, params []client.QueryParam) []client.QueryParam
}

// FilterColumn - лист дерева фильтров: сравнение одной колонки.
// При нулевом Op кодируется как root[col]=value.
type FilterColumn struct {
	Column string
	Op     CompareOp
	Value  string
}

func (f FilterColumn) appendParams(path string, params []client.QueryParam) []client.QueryParam {
	key := fmt.Sprintf("%s[%s]", path, f.Column)
	if f.Op != 0 {
		key = fmt.Sprintf("%s[%s]", key, f.Op.symbol())
	}
	return append(params, client.QueryParam{Key: key, Value: f.Value})
}

// And - конъюнкция вложенных фильтров.
type And struct {
	Filters []Filter
}

func (f And) appendParams(path string, params []client.QueryParam) []client.QueryParam {
	for i, nested := range f.Filters {
		params = nested.appendParams(fmt.Sprintf("%s[$and][%d]", path, i), params)
	}
	return params
}

// Or - дизъюнкция вложенных фильтров.
type Or struct {
	Filters []Filter
}

func (f Or) appendParams(path string, params []client.QueryParam) []client.QueryParam {
	for i, nested := range f.Filters {
		params = nested.appendParams(fmt.Sprintf("%s[$or][%d]", path, i), params)
	}
	return params
}

// Pagination задает страницу выборки. Нулевые значения не кодируются.
// Cursor и Offset могут быть заданы одновременно - энкодер передает оба,
// порядок разрешения остается за сервером.
type Pagination struct {
	Cursor string
	Limit  uint64
	Offset uint64
}

// ListArguments собирает все опции операции list (и фильтры subscribe).
// Пустые аргументы кодируются в пустую строку запроса.
type ListArguments struct {
	Pagination

	// Order - упорядоченный список колонок сортировки; знак +/- перед
	// именем задает направление.
	Order []string
	// Filters кодируются под корневым ключом "filter".
	Filters []Filter
	// Expand - список foreign key колонок для гидрации.
	Expand []string
	// Count запрашивает у сервера total_count.
	Count bool
}

// encodeListParams сериализует аргументы list в упорядоченный список
// query параметров.
func encodeListParams(args *ListArguments) []client.QueryParam {
	var params []client.QueryParam
	if args == nil {
		return params
	}

	if args.Cursor != "" {
		params = append(params, client.QueryParam{Key: "cursor", Value: args.Cursor})
	}
	if args.Limit > 0 {
		params = append(params, client.QueryParam{Key: "limit", Value: strconv.FormatUint(args.Limit, 10)})
	}
	if args.Offset > 0 {
		params = append(params, client.QueryParam{Key: "offset", Value: strconv.FormatUint(args.Offset, 10)})
	}
	if len(args.Order) > 0 {
		params = append(params, client.QueryParam{Key: "order", Value: strings.Join(args.Order, ",")})
	}
	if len(args.Expand) > 0 {
		params = append(params, client.QueryParam{Key: "expand", Value: strings.Join(args.Expand, ",")})
	}
	if args.Count {
		params = append(params, client.QueryParam{Key: "count", Value: "true"})
	}
	params = encodeFilters(params, args.Filters)
	return params
}

// encodeFilters кодирует дерево фильтров под корнем "filter".
func encodeFilters(params []client.QueryParam, filters []Filter) []client.QueryParam {
	for _, f := range filters {
		params = f.appendParams("filter", params)
	}
	return params
}
