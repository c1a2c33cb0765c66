// internal/browser/scripts.go
package browser

// listenerRegistryJS is installed on every new document before any page
// script runs. It wraps addEventListener so the listeners a page attaches
// dynamically can be enumerated later; without the wrapper only inline on*
// attributes would be visible.
const listenerRegistryJS = `(() => {
	if (window.__jscrawl_hooked) { return; }
	window.__jscrawl_hooked = true;
	window.__jscrawl_listeners = [];
	const orig = EventTarget.prototype.addEventListener;
	EventTarget.prototype.addEventListener = function(type, listener, options) {
		try {
			if (this && this.nodeType === 1) {
				window.__jscrawl_listeners.push({ target: this, type: String(type) });
			}
		} catch (e) { /* never break the page */ }
		return orig.call(this, type, listener, options);
	};
})();`

// collectListenersJS enumerates attached listeners matching a type filter.
// The filter is injected as a JSON array via fmt.Sprintf. Each result is
// {selector, event_type, node_index}; the selector is a best-effort CSS
// path computed at enumeration time.
const collectListenersJS = `(() => {
	const filter = new Set(%s);
	const out = [];
	const indexOfNode = new Map();
	let nextIndex = 0;

	function nodeIndex(el) {
		if (!indexOfNode.has(el)) { indexOfNode.set(el, nextIndex++); }
		return indexOfNode.get(el);
	}

	function cssPath(el) {
		if (!(el instanceof Element)) { return ''; }
		const path = [];
		while (el && el.nodeType === 1) {
			let part = el.nodeName.toLowerCase();
			if (el.id) {
				path.unshift(part + '#' + CSS.escape(el.id));
				break;
			}
			let sib = el, nth = 1;
			while ((sib = sib.previousElementSibling)) {
				if (sib.nodeName === el.nodeName) { nth++; }
			}
			if (nth > 1) { part += ':nth-of-type(' + nth + ')'; }
			path.unshift(part);
			el = el.parentElement;
		}
		return path.join(' > ');
	}

	function add(el, type) {
		if (!filter.has(type)) { return; }
		if (!el || !el.isConnected) { return; }
		const selector = cssPath(el);
		if (!selector) { return; }
		out.push({ selector: selector, event_type: type, node_index: nodeIndex(el) });
	}

	// Listeners registered through addEventListener (recorded by the hook).
	const recorded = window.__jscrawl_listeners || [];
	for (const rec of recorded) {
		add(rec.target, rec.type);
	}

	// Inline handler attributes.
	for (const type of filter) {
		for (const el of document.querySelectorAll('[on' + type + ']')) {
			add(el, type);
		}
	}

	return JSON.stringify(out);
})();`

// dispatchEventJS fires a synthetic mouse event. The [selector, eventType]
// pair is injected as a JSON array via fmt.Sprintf. Returns false when the
// selector no longer matches anything.
const dispatchEventJS = `(() => {
	const args = %s;
	const el = document.querySelector(args[0]);
	if (!el) { return false; }
	const ev = new MouseEvent(args[1], { bubbles: true, cancelable: true, view: window });
	el.dispatchEvent(ev);
	return true;
})();`
