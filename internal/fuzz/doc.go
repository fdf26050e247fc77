// Package fuzztests houses Go fuzz harnesses for the unit pipeline: YAML
// bytes go through the fixture loader, the lint and the resolver, and
// candidate lists go through the function-set algebra. The goal is to
// guard against panics on arbitrary inputs.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
package fuzztests
