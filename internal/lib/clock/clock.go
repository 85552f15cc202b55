// Package clock содержит вспомогательные функции работы с календарными
// границами. Квота считается по дате UTC, месячная сводка — с первого
// числа текущего месяца; обе границы вычисляются из одного момента
// времени, чтобы проверка допуска и инкремент не разъехались по датам.
package clock

import "time"

// Day обрезает момент времени до календарной даты UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthStart возвращает первое число месяца, которому принадлежит t (UTC).
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}
